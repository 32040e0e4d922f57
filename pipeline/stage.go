package pipeline

import (
	"fmt"
	"strings"
)

// Stage is a named point in the request lifecycle. Stage markers group the
// middleware registered before them into that stage on hosts that run
// pipelines in lifecycle stages; elsewhere they only order diagnostics.
type Stage int

// Stages in lifecycle order.
const (
	StageAuthenticate Stage = iota
	StagePostAuthenticate
	StageAuthorize
	StagePostAuthorize
	StageResolveCache
	StagePostResolveCache
	StageMapHandler
	StagePostMapHandler
	StageAcquireState
	StagePostAcquireState
	StagePreHandlerExecute
)

var stageNames = [...]string{
	StageAuthenticate:      "Authenticate",
	StagePostAuthenticate:  "PostAuthenticate",
	StageAuthorize:         "Authorize",
	StagePostAuthorize:     "PostAuthorize",
	StageResolveCache:      "ResolveCache",
	StagePostResolveCache:  "PostResolveCache",
	StageMapHandler:        "MapHandler",
	StagePostMapHandler:    "PostMapHandler",
	StageAcquireState:      "AcquireState",
	StagePostAcquireState:  "PostAcquireState",
	StagePreHandlerExecute: "PreHandlerExecute",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}

	return fmt.Sprintf("Stage(%d)", int(s))
}

// ParseStage returns the stage with the given case-insensitive name.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if strings.EqualFold(n, name) {
			return Stage(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidStage, name)
}

// UseStageMarker registers a stage marker and returns the builder. Unknown
// stage names are reported by Build.
func (b *Builder) UseStageMarker(stage string) *Builder {
	b.entries = append(b.entries, entry{
		kind:  KindStage,
		name:  "stage:" + stage,
		stage: stage,
	})

	return b
}

// resolveStages returns the effective stage of every stage marker, keyed by
// entry index. A marker for a stage earlier than a previous marker is
// coalesced into the previous stage.
func (b *Builder) resolveStages(logWarnings bool) (map[int]Stage, error) {
	stages := make(map[int]Stage)
	current := Stage(-1)

	for i, e := range b.entries {
		if e.kind != KindStage {
			continue
		}

		s, err := ParseStage(e.stage)
		if err != nil {
			return nil, &BuildError{Index: i, Name: e.name, Err: err}
		}

		if s < current {
			if logWarnings {
				b.Logger().Warn("pipeline stage marker out of order",
					"index", i,
					"stage", s.String(),
					"coalesced_into", current.String(),
				)
			}

			s = current
		}

		current = s
		stages[i] = s
	}

	return stages, nil
}
