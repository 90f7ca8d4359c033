package frame

import "fmt"

// Width is the number of bytes an integer field occupies on the wire.
type Width int

const (
	Width8  Width = 1
	Width16 Width = 2
	Width24 Width = 3
	Width32 Width = 4
	Width64 Width = 8
)

// Bits reports the width in bits.
func (w Width) Bits() int {
	return int(w) * 8
}

func (w Width) valid() bool {
	switch w {
	case Width8, Width16, Width24, Width32, Width64:
		return true
	default:
		return false
	}
}

// Transform is a stateless per-byte mapping applied after the byte order
// split. Every transform is its own family of inverse pairs, see Invert.
type Transform uint8

const (
	TransformNone Transform = iota
	// TransformAdd adds 128 to the byte ("A").
	TransformAdd
	// TransformNeg negates the byte ("C").
	TransformNeg
	// TransformSub subtracts the byte from 128 ("S").
	TransformSub
)

// Apply maps an encoded byte onto its wire value.
func (t Transform) Apply(b byte) byte {
	switch t {
	case TransformAdd:
		return b + 128
	case TransformNeg:
		return -b
	case TransformSub:
		return 128 - b
	default:
		return b
	}
}

// Invert recovers the encoded byte from its wire value.
func (t Transform) Invert(b byte) byte {
	switch t {
	case TransformAdd:
		return b - 128
	case TransformNeg:
		return -b
	case TransformSub:
		return 128 - b
	default:
		return b
	}
}

func (t Transform) String() string {
	switch t {
	case TransformNone:
		return "none"
	case TransformAdd:
		return "add"
	case TransformNeg:
		return "neg"
	case TransformSub:
		return "sub"
	default:
		return fmt.Sprintf("transform(%d)", uint8(t))
	}
}

// Order selects how the bytes of a multi-byte integer are laid out.
type Order uint8

const (
	OrderBig Order = iota
	OrderLittle
	// OrderMiddle swaps the bytes inside each 16-bit half: b2,b1,b4,b3
	// where b1 is the least significant byte. Defined for 32-bit fields.
	OrderMiddle
	// OrderMixed emits the high half first, low byte first: b3,b4,b1,b2.
	// Defined for 32-bit fields.
	OrderMixed
)

func (o Order) String() string {
	switch o {
	case OrderBig:
		return "big"
	case OrderLittle:
		return "little"
	case OrderMiddle:
		return "middle"
	case OrderMixed:
		return "mixed"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// permutedShifts holds the byte orders that only exist for specific widths.
// Each entry lists, in wire order, the right shift that extracts the byte.
var permutedShifts = map[Order]map[Width][]uint{
	OrderMiddle: {Width32: {8, 0, 24, 16}},
	OrderMixed:  {Width32: {16, 24, 0, 8}},
}

// shifts returns the right shifts, in wire order, used to split a value of
// the given width.
func (o Order) shifts(w Width) ([]uint, bool) {
	if !w.valid() {
		return nil, false
	}
	n := int(w)
	switch o {
	case OrderBig:
		out := make([]uint, n)
		for i := 0; i < n; i++ {
			out[i] = uint(8 * (n - 1 - i))
		}
		return out, true
	case OrderLittle:
		out := make([]uint, n)
		for i := 0; i < n; i++ {
			out[i] = uint(8 * i)
		}
		return out, true
	default:
		byWidth, ok := permutedShifts[o]
		if !ok {
			return nil, false
		}
		out, ok := byWidth[w]
		return out, ok
	}
}

// Variant names one integer encoding: a byte order plus a byte transform.
type Variant struct {
	Name      string
	Order     Order
	Transform Transform
}

func (v Variant) String() string {
	return v.Name
}

// Supports reports whether the variant is defined for the width.
func (v Variant) Supports(w Width) bool {
	_, ok := v.Order.shifts(w)
	return ok
}

var (
	Plain     = Variant{Name: "plain", Order: OrderBig, Transform: TransformNone}
	Little    = Variant{Name: "little", Order: OrderLittle, Transform: TransformNone}
	Add       = Variant{Name: "add", Order: OrderBig, Transform: TransformAdd}
	Neg       = Variant{Name: "neg", Order: OrderBig, Transform: TransformNeg}
	Sub       = Variant{Name: "sub", Order: OrderBig, Transform: TransformSub}
	LittleAdd = Variant{Name: "littleAdd", Order: OrderLittle, Transform: TransformAdd}
	LittleNeg = Variant{Name: "littleNeg", Order: OrderLittle, Transform: TransformNeg}
	LittleSub = Variant{Name: "littleSub", Order: OrderLittle, Transform: TransformSub}
	Middle    = Variant{Name: "middle", Order: OrderMiddle, Transform: TransformNone}
	Mixed     = Variant{Name: "mixed", Order: OrderMixed, Transform: TransformNone}
)

// Variants is the table of encodings understood by this protocol revision.
// New revisions add rows here; the builder and reader only consult the
// row's order and transform.
var Variants = []Variant{Plain, Little, Add, Neg, Sub, LittleAdd, LittleNeg, LittleSub, Middle, Mixed}

// VariantByName looks a variant up in the table.
func VariantByName(name string) (Variant, bool) {
	for _, v := range Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// rangeFor returns the accepted input domain of a width: anything that fits
// either the signed or the unsigned interpretation. Negative values go out
// in two's complement.
func rangeFor(w Width) (int64, int64) {
	if w >= Width64 {
		return -1 << 63, 1<<63 - 1
	}
	bits := uint(w.Bits())
	return -(int64(1) << (bits - 1)), int64(1)<<bits - 1
}

// encode appends the wire bytes of value to dst.
func encode(dst []byte, w Width, v Variant, value int64) ([]byte, error) {
	shifts, ok := v.Order.shifts(w)
	if !ok {
		return dst, &EncodingRangeError{Field: v.Name, Value: value, Reason: fmt.Sprintf("variant %s is not defined for %d-bit fields", v.Name, w.Bits())}
	}
	lo, hi := rangeFor(w)
	if value < lo || value > hi {
		return dst, &EncodingRangeError{Field: fmt.Sprintf("%s%d", v.Name, w.Bits()), Value: value, Min: lo, Max: hi}
	}
	u := uint64(value)
	for _, shift := range shifts {
		dst = append(dst, v.Transform.Apply(byte(u>>shift)))
	}
	return dst, nil
}

// decode reverses encode for exactly int(w) bytes of src, returning the
// unsigned value.
func decode(src []byte, w Width, v Variant) (uint64, error) {
	shifts, ok := v.Order.shifts(w)
	if !ok {
		return 0, &EncodingRangeError{Field: v.Name, Reason: fmt.Sprintf("variant %s is not defined for %d-bit fields", v.Name, w.Bits())}
	}
	if len(src) < len(shifts) {
		return 0, ErrShortPayload
	}
	var u uint64
	for i, shift := range shifts {
		u |= uint64(v.Transform.Invert(src[i])) << shift
	}
	return u, nil
}
