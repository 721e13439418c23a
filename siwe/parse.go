package siwe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veristamp/veristamp/core"
)

// ParseMessage is the structural inverse of FormatMessage. Fields are read
// by line position and exact prefix, never by pattern-searching the body:
// an address-shaped token inside the statement cannot be misparsed as the
// signing address.
func ParseMessage(raw string) (core.SiweMessage, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 10 {
		return core.SiweMessage{}, malformed("too few lines")
	}

	domain, ok := strings.CutSuffix(lines[0], preambleSuffix)
	if !ok || domain == "" || strings.Contains(domain, " ") {
		return core.SiweMessage{}, malformed("bad preamble")
	}

	address := lines[1]
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return core.SiweMessage{}, malformed("bad address line")
	}

	if lines[2] != "" || lines[4] != "" {
		return core.SiweMessage{}, malformed("bad statement framing")
	}
	statement := lines[3]

	uri, err := fieldValue(lines, 5, "URI: ")
	if err != nil {
		return core.SiweMessage{}, err
	}
	version, err := fieldValue(lines, 6, "Version: ")
	if err != nil {
		return core.SiweMessage{}, err
	}
	chainStr, err := fieldValue(lines, 7, "Chain ID: ")
	if err != nil {
		return core.SiweMessage{}, err
	}
	chainID, err := strconv.Atoi(chainStr)
	if err != nil {
		return core.SiweMessage{}, malformed("bad chain id")
	}
	nonce, err := fieldValue(lines, 8, "Nonce: ")
	if err != nil {
		return core.SiweMessage{}, err
	}
	issuedStr, err := fieldValue(lines, 9, "Issued At: ")
	if err != nil {
		return core.SiweMessage{}, err
	}
	issuedAt, err := time.Parse(time.RFC3339, issuedStr)
	if err != nil {
		return core.SiweMessage{}, malformed("bad issued-at timestamp")
	}

	msg := core.SiweMessage{
		Domain:    domain,
		Address:   address,
		Statement: statement,
		URI:       uri,
		Version:   version,
		ChainID:   chainID,
		Nonce:     nonce,
		IssuedAt:  issuedAt.UTC(),
	}

	next := 10
	if next < len(lines) && strings.HasPrefix(lines[next], "Expiration Time: ") {
		exp, err := time.Parse(time.RFC3339, strings.TrimPrefix(lines[next], "Expiration Time: "))
		if err != nil {
			return core.SiweMessage{}, malformed("bad expiration timestamp")
		}
		expUTC := exp.UTC()
		msg.ExpirationTime = &expUTC
		next++
	}
	if next < len(lines) {
		if lines[next] != "Resources:" {
			return core.SiweMessage{}, malformed("unexpected trailing content")
		}
		next++
		if next >= len(lines) {
			return core.SiweMessage{}, malformed("empty resources section")
		}
		for ; next < len(lines); next++ {
			r, ok := strings.CutPrefix(lines[next], "- ")
			if !ok || r == "" {
				return core.SiweMessage{}, malformed("bad resource line")
			}
			msg.Resources = append(msg.Resources, r)
		}
	}
	if next != len(lines) {
		return core.SiweMessage{}, malformed("unexpected trailing content")
	}

	return msg, nil
}

func fieldValue(lines []string, idx int, prefix string) (string, error) {
	if idx >= len(lines) {
		return "", malformed("missing " + strings.TrimSuffix(prefix, ": "))
	}
	v, ok := strings.CutPrefix(lines[idx], prefix)
	if !ok || v == "" {
		return "", malformed("missing " + strings.TrimSuffix(prefix, ": "))
	}
	return v, nil
}

func malformed(detail string) error {
	return fmt.Errorf("%s: %w", detail, core.ErrMalformedMessage)
}
