package object

// Group 60 (Class Data) objects carry no payload: they appear only in
// READ requests, paired with the "all objects" range qualifier, to
// poll Class 0 (static data) or Classes 1-3 (event data).

func registerClassData() {
	for v := uint8(1); v <= 4; v++ {
		variation := v
		register(Descriptor{
			Group: 60, Variation: variation, Name: classDataName(variation),
			FixedSize: 0,
			Decode: func(buf []byte) (Instance, error) {
				return Instance{Group: 60, Variation: variation}, nil
			},
			Encode: func(inst Instance) []byte { return nil },
		})
	}
}

func classDataName(variation uint8) string {
	switch variation {
	case 1:
		return "Class 0 Data"
	case 2:
		return "Class 1 Data"
	case 3:
		return "Class 2 Data"
	case 4:
		return "Class 3 Data"
	default:
		return "Class Data"
	}
}
