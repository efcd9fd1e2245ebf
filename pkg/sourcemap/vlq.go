package sourcemap

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqShift    = 5
	vlqBase     = 1 << vlqShift
	vlqMask     = vlqBase - 1
	vlqContinue = vlqBase
)

// appendVLQ appends the Base64 VLQ encoding of v to dst. The sign lives in
// the lowest bit of the first digit.
func appendVLQ(dst []byte, v int) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = uint64(-v)<<1 | 1
	}
	for {
		digit := u & vlqMask
		u >>= vlqShift
		if u > 0 {
			digit |= vlqContinue
		}
		dst = append(dst, base64Digits[digit])
		if u == 0 {
			return dst
		}
	}
}
