package registryclient

import (
	"encoding/json"
	"io"
)

func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	return dec.Decode(dst)
}
