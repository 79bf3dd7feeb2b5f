package neural

// Species is a compatibility-clustered group of organisms. Membership is
// maintained by the Population; the representative genome anchors distance
// comparisons so cluster identity is stable across reassignment passes.
type Species struct {
	ID             int
	Representative *Organism
	Organisms      []*Organism
	AvgFitness     float64 // last estimate from EstimateAverage
}

// EstimateAverage recomputes the species' estimated average fitness from its
// current members and returns it. Empty species estimate to zero.
func (s *Species) EstimateAverage() float64 {
	if len(s.Organisms) == 0 {
		s.AvgFitness = 0
		return 0
	}

	total := 0.0
	for _, o := range s.Organisms {
		total += o.Fitness
	}
	s.AvgFitness = total / float64(len(s.Organisms))
	return s.AvgFitness
}

// Size returns the member count.
func (s *Species) Size() int {
	return len(s.Organisms)
}

// add appends an organism and sets its back-reference.
func (s *Species) add(o *Organism) {
	s.Organisms = append(s.Organisms, o)
	o.Species = s
}

// remove drops an organism from the member list. Order is preserved so the
// population's deterministic tie-breaks stay stable.
func (s *Species) remove(o *Organism) {
	for i, member := range s.Organisms {
		if member == o {
			s.Organisms = append(s.Organisms[:i], s.Organisms[i+1:]...)
			break
		}
	}
	if o.Species == s {
		o.Species = nil
	}
	if s.Representative == o && len(s.Organisms) > 0 {
		s.Representative = s.Organisms[0]
	}
}
