package app

// sequenceCounter is a 4-bit counter (0-15) used independently for
// solicited and unsolicited response numbering (spec §4.4).
type sequenceCounter struct {
	next uint8
}

func (s *sequenceCounter) current() uint8 { return s.next & acSeqMask }

func (s *sequenceCounter) advance() uint8 {
	cur := s.current()
	s.next = (s.next + 1) & acSeqMask
	return cur
}
