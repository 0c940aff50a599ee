package asset

// Assembler seals the chunk buffer of a finished recording session into one
// immutable Asset and hands out a local preview reference for it, so the
// result is playable before any upload happens.
type Assembler struct {
	previews *PreviewRegistry
}

// NewAssembler returns an Assembler that registers previews in the given registry.
func NewAssembler(previews *PreviewRegistry) *Assembler {
	return &Assembler{previews: previews}
}

// Seal concatenates chunks in delivery order into an immutable Asset.
// It fails with ErrEmptyRecording when the chunks carry no data, e.g. when a
// session was stopped before the device delivered anything.
func (as *Assembler) Seal(chunks [][]byte, mimeType string) (*Asset, error) {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total == 0 {
		return nil, ErrEmptyRecording
	}

	data := make([]byte, 0, total)
	for _, c := range chunks {
		data = append(data, c...)
	}

	a := &Asset{
		data:     data,
		mimeType: mimeType,
		previews: as.previews,
	}
	a.localRef = as.previews.register(data, mimeType)
	return a, nil
}
