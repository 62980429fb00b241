package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// errBadPayload marks malformed request input. The HTTP layer answers
// it with 404, matching the deliberate choice to not distinguish a bad
// request from a missing resource on this surface.
var errBadPayload = errors.New("malformed payload")

var validate = validator.New()

// rawCartPayload defers field decoding so that each field can apply its
// own coercion rules: clients send ints, numeric strings, and
// stringly-typed booleans interchangeably.
type rawCartPayload struct {
	ProductPK      json.RawMessage `json:"product_pk"`
	OptionsPKs     json.RawMessage `json:"options_pks"`
	Quantity       json.RawMessage `json:"quantity"`
	UpdateQuantity json.RawMessage `json:"update_quantity"`
}

type addRequest struct {
	ProductID      int64 `validate:"required,gt=0"`
	Selection      Selection
	Quantity       int
	UpdateQuantity bool
}

type removeRequest struct {
	ProductID int64 `validate:"required,gt=0"`
	Selection Selection
}

func parseAddRequest(body io.Reader) (addRequest, error) {
	raw, err := decodeRawPayload(body)
	if err != nil {
		return addRequest{}, err
	}
	req := addRequest{Quantity: 1}
	if req.ProductID, err = coerceInt64(raw.ProductPK, "product_pk"); err != nil {
		return addRequest{}, err
	}
	if req.Selection, err = coerceSelection(raw.OptionsPKs); err != nil {
		return addRequest{}, err
	}
	if raw.Quantity != nil {
		qty, err := coerceInt64(raw.Quantity, "quantity")
		if err != nil {
			return addRequest{}, err
		}
		req.Quantity = int(qty)
	}
	if raw.UpdateQuantity != nil {
		if req.UpdateQuantity, err = coerceBool(raw.UpdateQuantity, "update_quantity"); err != nil {
			return addRequest{}, err
		}
	}
	if err := validate.Struct(req); err != nil {
		return addRequest{}, fmt.Errorf("product_pk must be a positive id: %w", errBadPayload)
	}
	return req, nil
}

func parseRemoveRequest(body io.Reader) (removeRequest, error) {
	raw, err := decodeRawPayload(body)
	if err != nil {
		return removeRequest{}, err
	}
	req := removeRequest{}
	if req.ProductID, err = coerceInt64(raw.ProductPK, "product_pk"); err != nil {
		return removeRequest{}, err
	}
	if req.Selection, err = coerceSelection(raw.OptionsPKs); err != nil {
		return removeRequest{}, err
	}
	if err := validate.Struct(req); err != nil {
		return removeRequest{}, fmt.Errorf("product_pk must be a positive id: %w", errBadPayload)
	}
	return req, nil
}

func decodeRawPayload(body io.Reader) (rawCartPayload, error) {
	var raw rawCartPayload
	if body == nil {
		return raw, fmt.Errorf("empty body: %w", errBadPayload)
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return raw, fmt.Errorf("decode payload: %v: %w", err, errBadPayload)
	}
	if raw.ProductPK == nil {
		return raw, fmt.Errorf("product_pk is required: %w", errBadPayload)
	}
	return raw, nil
}

// coerceInt64 accepts a JSON number or a numeric string.
func coerceInt64(raw json.RawMessage, field string) (int64, error) {
	var text string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("%s: %w", field, errBadPayload)
		}
	} else {
		text = string(bytes.TrimSpace(raw))
	}
	value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", field, errBadPayload)
	}
	return value, nil
}

// coerceBool accepts the documented truthy/falsy spellings and nothing
// else: 'True', 'true', '1', 1, true / 'False', 'false', '0', 0, false.
func coerceBool(raw json.RawMessage, field string) (bool, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, fmt.Errorf("%s: %w", field, errBadPayload)
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "True", "true", "1":
			return true, nil
		case "False", "false", "0":
			return false, nil
		}
	case float64:
		switch v {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
	return false, fmt.Errorf("%s must be a boolean: %w", field, errBadPayload)
}

// coerceSelection implements the three-way options_pks contract:
// absent means default options, an empty string means no options, and
// a list of int-coercible values means an explicit selection.
func coerceSelection(raw json.RawMessage) (Selection, error) {
	if raw == nil {
		return DefaultOptions(), nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return DefaultOptions(), nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil || text != "" {
			return Selection{}, fmt.Errorf("options_pks: %w", errBadPayload)
		}
		return NoOptions(), nil
	}
	if trimmed[0] != '[' {
		return Selection{}, fmt.Errorf("options_pks must be a list or empty string: %w", errBadPayload)
	}
	var rawIDs []json.RawMessage
	if err := json.Unmarshal(trimmed, &rawIDs); err != nil {
		return Selection{}, fmt.Errorf("options_pks: %w", errBadPayload)
	}
	if len(rawIDs) == 0 {
		return NoOptions(), nil
	}
	ids := make([]int64, 0, len(rawIDs))
	for _, r := range rawIDs {
		id, err := coerceInt64(r, "options_pks")
		if err != nil {
			return Selection{}, err
		}
		ids = append(ids, id)
	}
	return WithOptions(ids...), nil
}
