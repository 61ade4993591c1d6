package app

import (
	"crypto/rand"
	"strings"
)

const roomCodeLength = 6

// roomCodeAlphabet avoids ambiguous characters (0/O, 1/I/L) so codes survive
// being read aloud or typed from a screenshot.
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// newRoomCode draws a 6-character code with rejection sampling so every
// alphabet character is equally likely.
func newRoomCode() string {
	const max = byte(255 - (256 % len(roomCodeAlphabet)))

	out := make([]byte, 0, roomCodeLength)
	buf := make([]byte, roomCodeLength*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, b := range buf {
			if b <= max {
				out = append(out, roomCodeAlphabet[int(b)%len(roomCodeAlphabet)])
				if len(out) == roomCodeLength {
					return string(out)
				}
			}
		}
	}
}

// normalizeRoomCode upper-cases user input; codes are case-insensitive on the
// way in.
func normalizeRoomCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
