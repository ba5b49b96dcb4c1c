package object

// Item is one decoded object header together with the instances it
// introduced (zero for class-poll and other payload-free headers).
type Item struct {
	Header    Header
	Range     Range
	Instances []Instance
}

func indexPrefixSize(p PrefixCode) int {
	switch p {
	case PrefixIndexByte, PrefixSizeByte:
		return 1
	case PrefixIndexShort, PrefixSizeShort:
		return 2
	case PrefixIndexInt, PrefixSizeInt:
		return 4
	default:
		return 0
	}
}

func readPrefixIndex(buf []byte, p PrefixCode) uint32 {
	switch p {
	case PrefixIndexByte:
		return uint32(buf[0])
	case PrefixIndexShort:
		return uint32(le16(buf))
	case PrefixIndexInt:
		return le32(buf)
	default:
		return 0
	}
}

// DecodeItems parses every object header and its instances out of an
// application fragment payload.
func DecodeItems(buf []byte) ([]Item, error) {
	var items []Item
	for len(buf) > 0 {
		h, rng, consumed, err := DecodeHeader(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[consumed:]

		if isBinaryPacked(h) {
			count := rng.Count
			if count < 0 {
				count = 0
			}
			instances, err := DecodePacked(buf, rng.Start, count)
			if err != nil {
				return nil, err
			}
			need := (count + 7) / 8
			buf = buf[need:]
			items = append(items, Item{Header: h, Range: rng, Instances: instances})
			continue
		}

		desc, err := Lookup(h.Group, h.Variation)
		if err != nil {
			return nil, err
		}

		count := rng.Count
		if count < 0 {
			count = 0 // "all objects" / class poll: no instances follow
		}

		instances := make([]Instance, 0, count)
		prefixSize := indexPrefixSize(h.Prefix)
		for i := 0; i < count; i++ {
			idx := rng.Start + uint32(i)
			if prefixSize > 0 {
				if len(buf) < prefixSize {
					return nil, ErrTruncatedInstance
				}
				idx = readPrefixIndex(buf, h.Prefix)
				buf = buf[prefixSize:]
			}
			if desc.FixedSize == 0 {
				inst, err := desc.Decode(nil)
				if err != nil {
					return nil, err
				}
				inst.Index = idx
				instances = append(instances, inst)
				continue
			}
			if len(buf) < desc.FixedSize {
				return nil, ErrTruncatedInstance
			}
			inst, err := desc.Decode(buf[:desc.FixedSize])
			if err != nil {
				return nil, err
			}
			inst.Index = idx
			instances = append(instances, inst)
			buf = buf[desc.FixedSize:]
		}
		items = append(items, Item{Header: h, Range: rng, Instances: instances})
	}
	return items, nil
}

// EncodeItems serializes a sequence of items (header + instances)
// back into an application fragment payload.
func EncodeItems(items []Item) ([]byte, error) {
	var out []byte
	for _, it := range items {
		hdr, err := EncodeHeader(it.Header, it.Range)
		if err != nil {
			return nil, err
		}
		out = append(out, hdr...)

		if isBinaryPacked(it.Header) {
			out = append(out, EncodePacked(it.Instances)...)
			continue
		}

		desc, err := Lookup(it.Header.Group, it.Header.Variation)
		if err != nil {
			return nil, err
		}
		prefixSize := indexPrefixSize(it.Header.Prefix)
		for _, inst := range it.Instances {
			if prefixSize > 0 {
				out = append(out, encodePrefixIndex(inst.Index, it.Header.Prefix)...)
			}
			out = append(out, desc.Encode(inst)...)
		}
	}
	return out, nil
}

func encodePrefixIndex(idx uint32, p PrefixCode) []byte {
	switch p {
	case PrefixIndexByte:
		return []byte{byte(idx)}
	case PrefixIndexShort:
		b := make([]byte, 2)
		putLE16(b, uint16(idx))
		return b
	case PrefixIndexInt:
		b := make([]byte, 4)
		putLE32(b, idx)
		return b
	default:
		return nil
	}
}

func isBinaryPacked(h Header) bool {
	return h.Group == 1 && h.Variation == 1
}
