package curl

import (
	"encoding/json"
	"io"
	"net/url"
	"regexp"
)

var formBodyPattern = regexp.MustCompile(`[^=]+=[^&]*&*`)

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case string:
		return []byte(b), detectStringType(b) + "; charset=UTF-8", nil
	case []byte:
		return b, "", nil
	case url.Values:
		return []byte(b.Encode()), "application/x-www-form-urlencoded; charset=UTF-8", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", err
		}
		return data, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json; charset=UTF-8", nil
	}
}

func detectStringType(data string) string {
	if formBodyPattern.MatchString(data) {
		return "application/x-www-form-urlencoded"
	}
	return "plain/text"
}
