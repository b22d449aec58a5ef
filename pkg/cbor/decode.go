package cbor

import (
	"errors"
	"math"
	"unsafe"
)

// MaxDepth bounds container/tag nesting during parse, so a hostile or
// corrupt input cannot exhaust the call stack.
const MaxDepth = 1000

// ErrAborted is returned when a streaming Visitor callback returns a
// nil next-visitor, requesting the parse stop immediately.
var ErrAborted = errors.New("cbor: visitor aborted parse")

// Visitor receives callbacks during a streaming parse. Each callback
// returns the Visitor to use for subsequent callbacks — usually itself,
// but a callback may redirect to a different Visitor, or return nil to
// abort the parse.
type Visitor interface {
	// Item is called for every non-container item (integers, strings,
	// tags, booleans, null) once fully parsed.
	Item(item Item, hdrBegin, valueBegin, end int) Visitor
	// ItemEnd is called when an array or map finishes parsing, with
	// the fully materialized container.
	ItemEnd(container Item, hdrBegin, valueBegin, end int) Visitor
	// Error is called with the byte offset and message on parse failure.
	Error(pos int, message string)
}

type decoder struct {
	buf       []byte
	pos       int
	emitViews bool
	maxDepth  int
}

// header describes a parsed CBOR header: its major type, the
// additional-info payload value, whether it used the CBOR
// indefinite-length marker (addl 31), and how many bytes it occupied.
type header struct {
	major      Major
	value      uint64
	indefinite bool
	size       int
}

func (d *decoder) readHeader() (header, error) {
	if d.pos >= len(d.buf) {
		return header{}, parseErr(d.pos, ErrBufferTooShort)
	}
	b := d.buf[d.pos]
	major := Major(b >> 5)
	addl := b & 0x1F

	switch {
	case addl < 24:
		return header{major: major, value: uint64(addl), size: 1}, nil
	case addl == 24:
		if d.pos+2 > len(d.buf) {
			return header{}, parseErr(d.pos, ErrBufferTooShort)
		}
		return header{major: major, value: uint64(d.buf[d.pos+1]), size: 2}, nil
	case addl == 25:
		if d.pos+3 > len(d.buf) {
			return header{}, parseErr(d.pos, ErrBufferTooShort)
		}
		v := uint64(d.buf[d.pos+1])<<8 | uint64(d.buf[d.pos+2])
		return header{major: major, value: v, size: 3}, nil
	case addl == 26:
		if d.pos+5 > len(d.buf) {
			return header{}, parseErr(d.pos, ErrBufferTooShort)
		}
		v := uint64(d.buf[d.pos+1])<<24 | uint64(d.buf[d.pos+2])<<16 |
			uint64(d.buf[d.pos+3])<<8 | uint64(d.buf[d.pos+4])
		return header{major: major, value: v, size: 5}, nil
	case addl == 27:
		if d.pos+9 > len(d.buf) {
			return header{}, parseErr(d.pos, ErrBufferTooShort)
		}
		v := uint64(d.buf[d.pos+1])<<56 | uint64(d.buf[d.pos+2])<<48 |
			uint64(d.buf[d.pos+3])<<40 | uint64(d.buf[d.pos+4])<<32 |
			uint64(d.buf[d.pos+5])<<24 | uint64(d.buf[d.pos+6])<<16 |
			uint64(d.buf[d.pos+7])<<8 | uint64(d.buf[d.pos+8])
		return header{major: major, value: v, size: 9}, nil
	case addl == 31:
		return header{major: major, indefinite: true, size: 1}, nil
	default: // 28, 29, 30
		return header{}, parseErr(d.pos, ErrReservedAdditionalInfo)
	}
}

// breakByte is the CBOR "break" stop-code (0xFF) that terminates an
// indefinite-length array or map.
const breakByte = 0xFF

func (d *decoder) atBreak() bool {
	return d.pos < len(d.buf) && d.buf[d.pos] == breakByte
}

// parse parses exactly one item at the current position, threading the
// visitor (which may be nil for a plain tree parse) through descendants
// and returning the possibly-redirected visitor for the caller's later
// siblings.
func (d *decoder) parse(depth int, v Visitor) (Item, Visitor, error) {
	if len(d.buf) == 0 {
		return Item{}, v, parseErr(0, ErrEmptyInput)
	}
	hdrBegin := d.pos
	h, err := d.readHeader()
	if err != nil {
		if v != nil {
			v.Error(hdrBegin, err.Error())
		}
		return Item{}, v, err
	}
	valueBegin := hdrBegin + h.size

	var item Item
	var end int

	switch h.major {
	case MajorUint:
		item = NewUInt(h.value)
		end = valueBegin
		d.pos = end

	case MajorNint:
		if h.value > math.MaxInt64 {
			err := parseErr(hdrBegin, ErrNintOverflow)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		item = NewNInt(-1 - int64(h.value))
		end = valueBegin
		d.pos = end

	case MajorBstr:
		if h.indefinite {
			err := parseErr(hdrBegin, ErrReservedAdditionalInfo)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		length := int(h.value)
		if length < 0 || valueBegin+length > len(d.buf) {
			err := parseErr(hdrBegin, ErrBufferTooShort)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		raw := d.buf[valueBegin : valueBegin+length]
		if d.emitViews {
			item = NewBStrView(raw)
		} else {
			owned := make([]byte, length)
			copy(owned, raw)
			item = NewBStr(owned)
		}
		end = valueBegin + length
		d.pos = end

	case MajorTstr:
		if h.indefinite {
			err := parseErr(hdrBegin, ErrReservedAdditionalInfo)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		length := int(h.value)
		if length < 0 || valueBegin+length > len(d.buf) {
			err := parseErr(hdrBegin, ErrBufferTooShort)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		raw := d.buf[valueBegin : valueBegin+length]
		if d.emitViews {
			item = NewTStrView(btoaUnsafe(raw))
		} else {
			item = NewTStr(string(raw))
		}
		end = valueBegin + length
		d.pos = end

	case MajorArray:
		if depth+1 > d.maxDepth {
			err := parseErr(hdrBegin, ErrDepthExceeded)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		d.pos = valueBegin
		var children []Item
		if h.indefinite {
			for {
				if d.pos >= len(d.buf) {
					err := parseErr(d.pos, ErrBufferTooShort)
					if v != nil {
						v.Error(d.pos, err.Error())
					}
					return Item{}, v, err
				}
				if d.atBreak() {
					d.pos++
					break
				}
				var child Item
				var cerr error
				child, v, cerr = d.parse(depth+1, v)
				if cerr != nil {
					return Item{}, v, cerr
				}
				if v == nil {
					return Item{}, v, ErrAborted
				}
				children = append(children, child)
			}
		} else {
			count := int(h.value)
			children = make([]Item, 0, count)
			for i := 0; i < count; i++ {
				var child Item
				var cerr error
				child, v, cerr = d.parse(depth+1, v)
				if cerr != nil {
					return Item{}, v, cerr
				}
				if v == nil {
					return Item{}, v, ErrAborted
				}
				children = append(children, child)
			}
		}
		item = NewArray(children)
		end = d.pos

	case MajorMap:
		if depth+1 > d.maxDepth {
			err := parseErr(hdrBegin, ErrDepthExceeded)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		d.pos = valueBegin
		var entries []MapEntry
		if h.indefinite {
			for {
				if d.pos >= len(d.buf) {
					err := parseErr(d.pos, ErrBufferTooShort)
					if v != nil {
						v.Error(d.pos, err.Error())
					}
					return Item{}, v, err
				}
				if d.atBreak() {
					d.pos++
					break
				}
				var key Item
				var kerr error
				key, v, kerr = d.parse(depth+1, v)
				if kerr != nil {
					return Item{}, v, kerr
				}
				if v == nil {
					return Item{}, v, ErrAborted
				}
				if d.pos >= len(d.buf) || d.atBreak() {
					err := parseErr(d.pos, ErrNotEnoughEntries)
					if v != nil {
						v.Error(d.pos, err.Error())
					}
					return Item{}, v, err
				}
				var val Item
				var verr error
				val, v, verr = d.parse(depth+1, v)
				if verr != nil {
					return Item{}, v, verr
				}
				if v == nil {
					return Item{}, v, ErrAborted
				}
				entries = append(entries, MapEntry{Key: key, Value: val})
			}
		} else {
			count := int(h.value)
			entries = make([]MapEntry, 0, count)
			for i := 0; i < count; i++ {
				var key, val Item
				var err error
				key, v, err = d.parse(depth+1, v)
				if err != nil {
					return Item{}, v, err
				}
				if v == nil {
					return Item{}, v, ErrAborted
				}
				val, v, err = d.parse(depth+1, v)
				if err != nil {
					return Item{}, v, err
				}
				if v == nil {
					return Item{}, v, ErrAborted
				}
				entries = append(entries, MapEntry{Key: key, Value: val})
			}
		}
		item = NewMap(entries)
		end = d.pos

	case MajorTag:
		if depth+1 > d.maxDepth {
			err := parseErr(hdrBegin, ErrDepthExceeded)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		d.pos = valueBegin
		var inner Item
		var ierr error
		inner, v, ierr = d.parse(depth+1, v)
		if ierr != nil {
			return Item{}, v, ierr
		}
		item = NewTag(h.value, inner)
		end = d.pos

	case MajorSimple:
		if h.indefinite {
			err := parseErr(hdrBegin, ErrUnsupportedSimple)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		if h.size != 1 {
			// Additional info 24-27 in the SIMPLE major type selects an
			// extended simple value or a float shape; neither is
			// supported by this codec.
			err := parseErr(hdrBegin, ErrUnsupportedSimple)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		switch h.value {
		case 20:
			item = NewBool(false)
		case 21:
			item = NewBool(true)
		case 22:
			item = Null()
		default:
			err := parseErr(hdrBegin, ErrUnsupportedSimple)
			if v != nil {
				v.Error(hdrBegin, err.Error())
			}
			return Item{}, v, err
		}
		end = valueBegin
		d.pos = end

	default:
		err := parseErr(hdrBegin, ErrReservedAdditionalInfo)
		if v != nil {
			v.Error(hdrBegin, err.Error())
		}
		return Item{}, v, err
	}

	if v != nil {
		if h.major == MajorArray || h.major == MajorMap {
			v = v.ItemEnd(item, hdrBegin, valueBegin, end)
		} else {
			v = v.Item(item, hdrBegin, valueBegin, end)
		}
		if v == nil {
			return item, v, ErrAborted
		}
	}

	return item, v, nil
}

// btoaUnsafe converts a byte slice to a string without copying. It is
// used only for borrowed text-string views, where the caller has
// already accepted that the view must not outlive the backing buffer.
func btoaUnsafe(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// ParseTree parses exactly one complete item from data and returns it
// along with the byte position just past it. On failure, err is
// non-nil and position/item are the state at the point of failure.
func ParseTree(data []byte, emitViews bool) (Item, int, error) {
	d := &decoder{buf: data, emitViews: emitViews, maxDepth: MaxDepth}
	item, _, err := d.parse(0, nil)
	return item, d.pos, err
}

// ParseStreaming parses exactly one complete item from data, invoking v
// for every sub-item as it completes. It returns the byte position just
// past the parsed item.
func ParseStreaming(data []byte, emitViews bool, v Visitor) (int, error) {
	if v == nil {
		panic("cbor: ParseStreaming requires a non-nil Visitor")
	}
	d := &decoder{buf: data, emitViews: emitViews, maxDepth: MaxDepth}
	_, _, err := d.parse(0, v)
	return d.pos, err
}
