package enums

// TrackingState is the registry state of a category.
type TrackingState string

const (
	TrackingStateUntracked TrackingState = "untracked"
	TrackingStateTracked   TrackingState = "tracked"
)

func (s TrackingState) String() string {
	return string(s)
}
