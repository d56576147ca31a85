package identity

import (
	"strconv"
	"strings"
)

// StampLength is the number of characters of a stamp.
const StampLength = 6

// Fingerprint is the set of browser properties a stamp is derived from.
type Fingerprint struct {
	UserAgent    string `json:"userAgent"`
	Language     string `json:"language"`
	ScreenWidth  int    `json:"screenWidth"`
	ScreenHeight int    `json:"screenHeight"`
}

func (fp Fingerprint) String() string {
	return strings.Join([]string{
		fp.UserAgent,
		fp.Language,
		strconv.Itoa(fp.ScreenWidth),
		strconv.Itoa(fp.ScreenHeight),
	}, "|")
}

// rollingHash is the 31-based polynomial string hash with 32-bit wraparound.
func rollingHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

// Stamp derives the 6 character, uppercase base-36 stamp of a fingerprint.
// The same fingerprint always yields the same stamp.
func Stamp(fp Fingerprint) string {
	return formatStamp(int64(rollingHash(fp.String())))
}

// formatStamp renders the magnitude of h in base 36, left padded with zeros and cut
// to StampLength.
func formatStamp(h int64) string {
	if h < 0 {
		h = -h
	}
	encoded := strconv.FormatInt(h, 36)
	if len(encoded) < StampLength {
		encoded = strings.Repeat("0", StampLength-len(encoded)) + encoded
	}
	return strings.ToUpper(encoded[:StampLength])
}
