package commandstructure

// stubCommand appends its tag to the data, or fails with err when set.
type stubCommand struct {
	name string
	tag  string
	err  error
}

func (s *stubCommand) Name() string {
	return s.name
}

func (s *stubCommand) Execute(imageData []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := append([]byte{}, imageData...)
	return append(out, s.tag...), nil
}

func newMockCommand(name string) *stubCommand {
	return &stubCommand{name: name}
}
