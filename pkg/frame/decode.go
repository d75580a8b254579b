package frame

import (
	"fmt"
)

func NewDecoder(f Format) (Decoder, error) {
	order, ok := f.Order()
	if !ok {
		return nil, fmt.Errorf("%s is not supported", f)
	}

	return decodePacked(order), nil
}
