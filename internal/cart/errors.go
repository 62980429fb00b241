package cart

import "errors"

// ErrNegativeQuantity is returned when an addition asks for a negative
// quantity.
var ErrNegativeQuantity = errors.New("quantity cannot be negative")

// ErrProductUnavailable is returned when the product is not available
// for sale.
var ErrProductUnavailable = errors.New("product is not available")

// ErrProductStockZero is returned when the product has no stock left.
var ErrProductStockZero = errors.New("product is out of stock")
