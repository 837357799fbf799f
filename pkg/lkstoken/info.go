package lkstoken

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// expireKeys lists where the info token may keep its expiry, in order of
// preference. The portal uses "expire".
var expireKeys = []string{"expire", "exp", "expires", "expiration"}

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

func decodeBase64JSON(raw RawToken) (TokenInfo, error) {
	data, err := decodeBase64(raw.Value)
	if err != nil {
		return TokenInfo{}, malformed(raw.Name, "", err)
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return TokenInfo{}, malformed(raw.Name, "", fmt.Errorf("decode json: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return TokenInfo{}, malformed(raw.Name, "", errors.New("trailing data after json payload"))
	}
	if payload == nil {
		return TokenInfo{}, malformed(raw.Name, "", errors.New("payload is not a json object"))
	}

	key, value, ok := firstPresent(payload, expireKeys...)
	if !ok {
		return TokenInfo{}, missingClaim(raw.Name, expireKeys[0])
	}

	expiration, err := parseExpiration(value)
	if err != nil {
		return TokenInfo{}, malformed(raw.Name, key, err)
	}

	return TokenInfo{
		Source:     raw.Name,
		Name:       firstString(payload["name"]),
		Expiration: expiration,
		Raw:        raw.Value,
		Claims:     payload,
	}, nil
}

// decodeBase64 accepts both alphabets, with or without padding. Cookie
// values sometimes arrive percent-encoded ("%3D" for "="), so those are
// unescaped first.
func decodeBase64(value string) ([]byte, error) {
	s := strings.TrimSpace(value)
	if strings.Contains(s, "%") {
		unescaped, err := url.PathUnescape(s)
		if err != nil {
			return nil, fmt.Errorf("unescape cookie value: %w", err)
		}
		s = unescaped
	}
	if s == "" {
		return nil, errors.New("empty value")
	}

	var firstErr error
	for _, enc := range base64Encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("decode base64: %w", firstErr)
}

func firstPresent(m map[string]any, keys ...string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return k, v, true
		}
	}
	return "", nil, false
}
