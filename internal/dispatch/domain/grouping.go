package domain

// DispatchGroup is the set of candidates sent together in one dispatch event.
type DispatchGroup struct {
	StateRepo  string
	EventType  string
	Candidates []Candidate
}

// Images returns the image reference of every candidate in the group.
func (g DispatchGroup) Images() []string {
	images := make([]string, 0, len(g.Candidates))
	for _, c := range g.Candidates {
		images = append(images, c.Image)
	}
	return images
}

// GroupCandidates buckets candidates by state repository and then by
// dispatch event type. Groups come out in the order their state repository
// was first seen, then in the order each event type was first seen under it.
func GroupCandidates(candidates []Candidate) []DispatchGroup {
	var repoOrder []string
	eventOrder := make(map[string][]string)
	buckets := make(map[string]map[string][]Candidate)

	for _, c := range candidates {
		byEvent, ok := buckets[c.StateRepo]
		if !ok {
			byEvent = make(map[string][]Candidate)
			buckets[c.StateRepo] = byEvent
			repoOrder = append(repoOrder, c.StateRepo)
		}
		if _, ok := byEvent[c.DispatchEventType]; !ok {
			eventOrder[c.StateRepo] = append(eventOrder[c.StateRepo], c.DispatchEventType)
		}
		byEvent[c.DispatchEventType] = append(byEvent[c.DispatchEventType], c)
	}

	groups := make([]DispatchGroup, 0, len(candidates))
	for _, repo := range repoOrder {
		for _, event := range eventOrder[repo] {
			groups = append(groups, DispatchGroup{
				StateRepo:  repo,
				EventType:  event,
				Candidates: buckets[repo][event],
			})
		}
	}
	return groups
}
