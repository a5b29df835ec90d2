package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrDecode marks a malformed input stream. It is fatal to the job:
// decoding stops, already-flushed batches are left for their consumers.
var ErrDecode = errors.New("malformed JSON stream")

// Handler receives decoder events. OnRecordComplete is called once for
// every completed object or array, at any nesting depth. OnParseError
// is called once before Run returns a decode error.
type Handler interface {
	OnRecordComplete(ctx context.Context, record interface{}) error
	OnParseError(err error)
}

// Decoder turns a byte stream of JSON into a lazy, forward-only
// sequence of completed records without materializing the whole
// document.
type Decoder struct {
	dec     *json.Decoder
	handler Handler
}

func NewDecoder(r io.Reader, h Handler) *Decoder {
	return &Decoder{dec: json.NewDecoder(r), handler: h}
}

type frame struct {
	object    map[string]interface{}
	array     []interface{}
	isObject  bool
	key       string
	expectKey bool
}

// Run decodes the stream to completion, emitting each completed
// container through the handler. Completed containers are emitted and
// released rather than attached to their parent, so memory stays
// bounded by record size, not file size.
func (d *Decoder) Run(ctx context.Context) error {
	var stack []*frame
	for {
		tok, err := d.dec.Token()
		if err == io.EOF {
			if len(stack) != 0 {
				perr := fmt.Errorf("%w: unexpected end of input", ErrDecode)
				d.handler.OnParseError(perr)
				return perr
			}
			return nil
		}
		if err != nil {
			perr := fmt.Errorf("%w: %v", ErrDecode, err)
			d.handler.OnParseError(perr)
			return perr
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				stack = append(stack, &frame{isObject: true, object: map[string]interface{}{}, expectKey: true})
			case '[':
				stack = append(stack, &frame{array: []interface{}{}})
			default: // '}' or ']'
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				var rec interface{}
				if top.isObject {
					rec = top.object
				} else {
					rec = top.array
				}
				if err := d.handler.OnRecordComplete(ctx, rec); err != nil {
					return err
				}
				if len(stack) > 0 && stack[len(stack)-1].isObject {
					stack[len(stack)-1].expectKey = true
				}
			}
		default:
			if len(stack) == 0 {
				// bare top-level scalar, nothing to attach it to
				continue
			}
			top := stack[len(stack)-1]
			if top.isObject {
				if top.expectKey {
					// object keys are always strings in valid JSON
					top.key = t.(string)
					top.expectKey = false
				} else {
					top.object[top.key] = t
					top.expectKey = true
				}
			} else {
				top.array = append(top.array, t)
			}
		}
	}
}
