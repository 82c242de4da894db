package grid

// ScentFloor is the level below which decayed scent snaps to zero.
const ScentFloor = 0.3

type ScentKind uint8

const (
	ScentHome ScentKind = iota
	ScentFood
)

func (k ScentKind) String() string {
	switch k {
	case ScentHome:
		return "home"
	case ScentFood:
		return "food"
	default:
		return "unknown"
	}
}

// ScentField holds one home and one food scalar per colony.
// Both slices are views into a grid-wide backing array.
type ScentField struct {
	home []float64
	food []float64
}

func (s *ScentField) layer(k ScentKind) []float64 {
	if k == ScentFood {
		return s.food
	}
	return s.home
}

func (s *ScentField) Get(k ScentKind, colony ColonyID) float64 {
	l := s.layer(k)
	if colony < 0 || int(colony) >= len(l) {
		return 0
	}
	return l[colony]
}

func (s *ScentField) add(k ScentKind, colony ColonyID, amt float64) {
	l := s.layer(k)
	if colony < 0 || int(colony) >= len(l) || amt <= 0 {
		return
	}
	l[colony] += amt
}

// Max returns the strongest value of kind k across all colonies.
func (s *ScentField) Max(k ScentKind) float64 {
	var m float64
	for _, v := range s.layer(k) {
		if v > m {
			m = v
		}
	}
	return m
}

// MaxExcept returns the strongest value of kind k over every colony but own.
func (s *ScentField) MaxExcept(k ScentKind, own ColonyID) float64 {
	var m float64
	for i, v := range s.layer(k) {
		if ColonyID(i) == own {
			continue
		}
		if v > m {
			m = v
		}
	}
	return m
}

// Decay applies scent -= scent*rate to every colony and kind independently.
func (s *ScentField) Decay(rate float64) {
	rate = clampRate(rate)
	decayLayer(s.home, rate)
	decayLayer(s.food, rate)
}

func clampRate(rate float64) float64 {
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

func (s *ScentField) reset() {
	clear(s.home)
	clear(s.food)
}

func decayLayer(l []float64, rate float64) {
	for i, v := range l {
		if v == 0 {
			continue
		}
		v -= v * rate
		if v < ScentFloor {
			v = 0
		}
		l[i] = v
	}
}
