package app

import "github.com/go-dnp3/dnp3go/pkg/object"

// Fragment is one fully reassembled application-layer message: either
// a request (function code + object headers selecting or carrying
// points) or a response (function code + IIN + object headers
// reporting point values).
type Fragment struct {
	IsResponse bool
	Request    RequestHeader
	Response   ResponseHeader
	Items      []object.Item
}

// Function returns the fragment's function code regardless of
// whether it is a request or response.
func (f Fragment) Function() FunctionCode {
	if f.IsResponse {
		return f.Response.Function
	}
	return f.Request.Function
}
