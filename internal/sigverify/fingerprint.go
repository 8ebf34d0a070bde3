package sigverify

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// fingerprintOffset and fingerprintLength locate the v4 issuer fingerprint
// within the decoded signature packet. See spec Design Notes: behavior on
// v3/v5 issuer subpackets is unspecified and out of scope.
const (
	fingerprintOffset = 12
	fingerprintLength = 20
)

// extractFingerprint decodes an ASCII-armored OpenPGP signature (the value
// of a commit's gpgsig header) and returns the lowercase-hex issuer key
// fingerprint found at bytes [12, 32) of the decoded packet.
func extractFingerprint(armored string) (string, error) {
	block, err := armor.Decode(strings.NewReader(armored))
	if err != nil {
		return "", fmt.Errorf("sigverify: decoding armor: %w", err)
	}
	if block.Type != "PGP SIGNATURE" {
		return "", fmt.Errorf("sigverify: unexpected armor block type %q", block.Type)
	}

	packet, err := io.ReadAll(block.Body)
	if err != nil {
		return "", fmt.Errorf("sigverify: reading signature packet: %w", err)
	}
	if len(packet) < fingerprintOffset+fingerprintLength {
		return "", fmt.Errorf("sigverify: signature packet too short (%d bytes)", len(packet))
	}

	fp := packet[fingerprintOffset : fingerprintOffset+fingerprintLength]
	return hex.EncodeToString(fp), nil
}
