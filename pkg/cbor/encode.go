package cbor

// headerSize returns the number of bytes a header with the given
// additional-info payload value occupies: 1 if the value is inline
// (< 24), 2/3/5/9 if it needs a 1/2/4/8-byte big-endian tail.
func headerSize(addl uint64) int {
	switch {
	case addl < 24:
		return 1
	case addl <= 0xFF:
		return 2
	case addl <= 0xFFFF:
		return 3
	case addl <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// appendHeader appends a CBOR header for the given major type and
// additional-info payload value (the inline value for UINT/NINT/SIMPLE,
// the length for BSTR/TSTR, the element count for ARRAY/MAP, or the tag
// number for TAG) to dst.
func appendHeader(dst []byte, major Major, value uint64) []byte {
	m := byte(major) << 5
	switch {
	case value < 24:
		return append(dst, m|byte(value))
	case value <= 0xFF:
		return append(dst, m|24, byte(value))
	case value <= 0xFFFF:
		return append(dst, m|25, byte(value>>8), byte(value))
	case value <= 0xFFFFFFFF:
		return append(dst, m|26,
			byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
	default:
		return append(dst, m|27,
			byte(value>>56), byte(value>>48), byte(value>>40), byte(value>>32),
			byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
	}
}

// nintAddlValue converts a strictly negative NINT value to its wire
// additional-info payload (-1-v).
func nintAddlValue(v int64) uint64 {
	return uint64(-1 - v)
}

// EncodedSize returns the exact number of bytes Encode(it) will
// produce.
func EncodedSize(it Item) int {
	switch it.kind {
	case KindUInt:
		return headerSize(it.u)
	case KindNInt:
		return headerSize(nintAddlValue(it.n))
	case KindBStr, KindBStrView:
		return headerSize(uint64(len(it.bytes))) + len(it.bytes)
	case KindEncoded:
		return len(it.bytes)
	case KindTStr, KindTStrView:
		return headerSize(uint64(len(it.str))) + len(it.str)
	case KindArray:
		n := headerSize(uint64(len(it.arr)))
		for _, e := range it.arr {
			n += EncodedSize(e)
		}
		return n
	case KindMap:
		n := headerSize(uint64(len(it.m)))
		for _, e := range it.m {
			n += EncodedSize(e.Key) + EncodedSize(e.Value)
		}
		return n
	case KindTag:
		return headerSize(it.tagNum) + EncodedSize(*it.tagVal)
	case KindBool, KindNull:
		return 1
	default:
		return 0
	}
}

// Encode returns the canonical byte-exact CBOR encoding of it.
func Encode(it Item) []byte {
	buf := make([]byte, 0, EncodedSize(it))
	return appendItem(buf, it)
}

func appendItem(dst []byte, it Item) []byte {
	switch it.kind {
	case KindUInt:
		return appendHeader(dst, MajorUint, it.u)
	case KindNInt:
		return appendHeader(dst, MajorNint, nintAddlValue(it.n))
	case KindBStr, KindBStrView:
		dst = appendHeader(dst, MajorBstr, uint64(len(it.bytes)))
		return append(dst, it.bytes...)
	case KindEncoded:
		return append(dst, it.bytes...)
	case KindTStr, KindTStrView:
		dst = appendHeader(dst, MajorTstr, uint64(len(it.str)))
		return append(dst, it.str...)
	case KindArray:
		dst = appendHeader(dst, MajorArray, uint64(len(it.arr)))
		for _, e := range it.arr {
			dst = appendItem(dst, e)
		}
		return dst
	case KindMap:
		dst = appendHeader(dst, MajorMap, uint64(len(it.m)))
		for _, e := range it.m {
			dst = appendItem(dst, e.Key)
			dst = appendItem(dst, e.Value)
		}
		return dst
	case KindTag:
		dst = appendHeader(dst, MajorTag, it.tagNum)
		return appendItem(dst, *it.tagVal)
	case KindBool:
		if it.b {
			return append(dst, 0xF5)
		}
		return append(dst, 0xF4)
	case KindNull:
		return append(dst, 0xF6)
	default:
		return dst
	}
}

// EncodeInto writes the encoding of it into the fixed-capacity buffer
// dst starting at offset pos, returning the position just past the
// written bytes. It returns ErrBufferTooShort (not a panic) if dst does
// not have enough room, and never partially mutates dst past the point
// of failure beyond what was already written for completed sub-items.
func EncodeInto(dst []byte, pos int, it Item) (int, error) {
	need := EncodedSize(it)
	if pos < 0 || pos+need > len(dst) {
		return pos, ErrBufferTooShort
	}
	out := appendItem(dst[:pos], it)
	return len(out), nil
}

// EncodeCallback feeds each encoded byte of it to sink in order.
func EncodeCallback(it Item, sink func(b byte) error) error {
	for _, b := range Encode(it) {
		if err := sink(b); err != nil {
			return err
		}
	}
	return nil
}
