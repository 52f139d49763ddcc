package sync

import "github.com/danieljhkim/apivcs/internal/patch"

// Listener observes the progress of pull and push.
type Listener interface {
	StartApplying(total int)
	Applied(p patch.Patch, result patch.ApplyResult)
	EndApplying()

	StartPushing(total int)
	Pushing(p patch.Patch)
	EndPushing()
}

// NopListener ignores all events.
type NopListener struct{}

func (NopListener) StartApplying(int)                      {}
func (NopListener) Applied(patch.Patch, patch.ApplyResult) {}
func (NopListener) EndApplying()                           {}
func (NopListener) StartPushing(int)                       {}
func (NopListener) Pushing(patch.Patch)                    {}
func (NopListener) EndPushing()                            {}
