package lkstoken

import "time"

// Decode parses raw according to its encoding and checks it against now.
// It has no side effects; the same input always yields the same result.
func Decode(raw RawToken, now time.Time) (TokenInfo, error) {
	var (
		info TokenInfo
		err  error
	)

	switch raw.Encoding {
	case EncodingJWT:
		info, err = decodeJWT(raw)
	case EncodingBase64JSON:
		info, err = decodeBase64JSON(raw)
	default:
		return TokenInfo{}, &Error{Token: raw.Name, Err: ErrUnknownEncoding}
	}
	if err != nil {
		return TokenInfo{}, err
	}

	if err := ValidateExpiry(info, now); err != nil {
		return TokenInfo{}, err
	}

	return info, nil
}

// ValidateExpiry fails with ErrExpired once info.Expiration <= now.
func ValidateExpiry(info TokenInfo, now time.Time) error {
	if info.Expired(now) {
		return &Error{Token: info.Source, Err: ErrExpired, Expiration: info.Expiration}
	}
	return nil
}
