package index

import "errors"

var (
	// ErrMissingFixing means a fixing that must come from history is absent.
	ErrMissingFixing        = errors.New("index: missing historical fixing")
	ErrInvalidFixingDate    = errors.New("index: fixing date is not a business day")
	ErrMissingTermStructure = errors.New("index: no forwarding term structure")
	ErrDuplicateFixing      = errors.New("index: fixing already stored with a different value")
	ErrInvalidIndex         = errors.New("index: invalid index definition")
)
