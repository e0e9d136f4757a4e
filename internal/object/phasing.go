package object

// SmoothPhasingInfo describes an object replacing another for one viewer.
type SmoothPhasingInfo struct {
	ReplaceObject GUID
	ReplaceActive bool
	StopAnimKits  bool
	Disabled      bool
}

// SmoothPhasing tracks per-viewer replacements so a viewer never sees both
// an object and its replacement.
type SmoothPhasing struct {
	viewerDependent map[GUID]*SmoothPhasingInfo
	single          *SmoothPhasingInfo
}

func NewSmoothPhasing() *SmoothPhasing {
	return &SmoothPhasing{viewerDependent: make(map[GUID]*SmoothPhasingInfo)}
}

// SetViewerDependentInfo records that, for seer, this object is replaced.
func (s *SmoothPhasing) SetViewerDependentInfo(seer GUID, info SmoothPhasingInfo) {
	s.viewerDependent[seer] = &info
}

func (s *SmoothPhasing) ClearViewerDependentInfo(seer GUID) {
	delete(s.viewerDependent, seer)
}

// SetSingleInfo records a replacement that applies to every viewer.
func (s *SmoothPhasing) SetSingleInfo(info SmoothPhasingInfo) {
	s.single = &info
}

func (s *SmoothPhasing) InfoForSeer(seer GUID) *SmoothPhasingInfo {
	if info, ok := s.viewerDependent[seer]; ok {
		return info
	}
	return s.single
}

// IsReplacing reports whether this object replaces guid for any viewer.
func (s *SmoothPhasing) IsReplacing(guid GUID) bool {
	return s.single != nil && s.single.ReplaceObject == guid
}

// IsBeingReplacedForSeer reports whether seer should be shown the
// replacement instead of this object.
func (s *SmoothPhasing) IsBeingReplacedForSeer(seer GUID) bool {
	if info, ok := s.viewerDependent[seer]; ok {
		return !info.Disabled
	}
	return false
}

// DisableReplacementForSeer stops hiding this object from seer.
func (s *SmoothPhasing) DisableReplacementForSeer(seer GUID) {
	if info, ok := s.viewerDependent[seer]; ok {
		info.Disabled = true
	}
}
