package keyarc

// Test types, registered once for the whole test binary.

// Dog is a value kind with hand-written field enumeration.
type Dog struct {
	Name          string
	IsCute        bool
	IsWaggingTail bool
}

func (d *Dog) EncodeFields(enc *Encoder) {
	enc.Encode(d.Name, "name")
	enc.Encode(d.IsCute, "isCute")
	enc.Encode(d.IsWaggingTail, "isWaggingTail")
}

func (d *Dog) DecodeFields(dec *Decoder) error {
	var err error
	if d.Name, err = dec.DecodeSymbol("name"); err != nil {
		return err
	}
	if d.IsCute, err = dec.DecodeBool("isCute"); err != nil {
		return err
	}
	if d.IsWaggingTail, err = dec.DecodeBool("isWaggingTail"); err != nil {
		return err
	}
	return nil
}

// Person is a reference kind that can participate in cycles via the
// RestoreReferences hook.
type Person struct {
	Name   string
	Friend *Person
}

func (p *Person) EncodeFields(enc *Encoder) {
	enc.Encode(p.Name, "name")
	enc.Encode(p.Friend, "friend")
}

func (p *Person) DecodeFields(dec *Decoder) error {
	var err error
	p.Name, err = dec.DecodeSymbol("name")
	return err
}

func (p *Person) RestoreReferences(dec *Decoder) error {
	var err error
	p.Friend, err = DecodeOptional[*Person](dec, "friend")
	return err
}

// Kennel is a reference kind without the restore hook; safe as long as its
// graph is acyclic.
type Kennel struct {
	City string
	Dogs []Dog
}

func (k *Kennel) EncodeFields(enc *Encoder) {
	enc.Encode(k.City, "city")
	EncodeList(enc, k.Dogs, "dogs")
}

func (k *Kennel) DecodeFields(dec *Decoder) error {
	var err error
	if k.City, err = dec.DecodeSymbol("city"); err != nil {
		return err
	}
	k.Dogs, err = DecodeList[Dog](dec, "dogs")
	return err
}

// Landmark has no Encodable/Decodable implementation and exercises the
// reflection-derived walker.
type Landmark struct {
	Title  string
	Lat    float64
	Lon    float64
	Tags   []string
	Rating int32  `keyarc:"stars"`
	Notes  string `keyarc:"-"`
}

func init() {
	RegisterValue(Dog{}, "")
	RegisterReference(&Person{}, "")
	RegisterReference(&Kennel{}, "")
	RegisterValue(Landmark{}, "")
}
