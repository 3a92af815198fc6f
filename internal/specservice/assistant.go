package specservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/millwork/internal/apperr"
	"github.com/starford/millwork/internal/spectree"
)

// The helpers below back the assistant tools. They address parents by
// path or by name, tag new nodes with source "ai", and never require the
// caller to know the tree layout.

// RoomRequest creates a room.
type RoomRequest struct {
	Name        string           `json:"name"`
	RoomType    string           `json:"room_type,omitempty"`
	FloorNumber int              `json:"floor_number,omitempty"`
	Pricing     spectree.Pricing `json:"pricing"`
}

// CreateRoom appends a room to the forest.
func (s *Service) CreateRoom(_ context.Context, id string, req RoomRequest, ifMatch string) (*Change, error) {
	node, err := spectree.NewNode(spectree.KindRoom, req.Name, &spectree.RoomAttrs{
		RoomType:    req.RoomType,
		FloorNumber: req.FloorNumber,
		Pricing:     req.Pricing,
	}, spectree.SourceAI)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "create_room", func(f *spectree.Forest) (*Change, error) {
		p, err := f.AddChild(spectree.Path{}, node)
		if err != nil {
			return nil, err
		}
		return &Change{Path: p.String()}, nil
	})
}

// LocationRequest creates a location in the room at RoomPath, or in the
// room named RoomName (the first room when both are empty).
type LocationRequest struct {
	RoomPath     string           `json:"room_path,omitempty"`
	RoomName     string           `json:"room_name,omitempty"`
	Name         string           `json:"name"`
	LocationType string           `json:"location_type,omitempty"`
	Pricing      spectree.Pricing `json:"pricing"`
}

// CreateLocation appends a location to a room.
func (s *Service) CreateLocation(_ context.Context, id string, req LocationRequest, ifMatch string) (*Change, error) {
	node, err := spectree.NewNode(spectree.KindLocation, req.Name, &spectree.LocationAttrs{
		LocationType: req.LocationType,
		Pricing:      req.Pricing,
	}, spectree.SourceAI)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "create_location", func(f *spectree.Forest) (*Change, error) {
		room, err := resolve(f, req.RoomPath, func() (spectree.Path, bool) {
			return f.FindRoom(req.RoomName)
		})
		if err != nil {
			return nil, fmt.Errorf("specservice: room %q: %w", req.RoomName, err)
		}
		p, err := f.AddChild(room, node)
		if err != nil {
			return nil, err
		}
		return &Change{Path: p.String()}, nil
	})
}

// RunRequest creates a run in the location at LocationPath, or in the
// location found by room and location name.
type RunRequest struct {
	LocationPath string           `json:"location_path,omitempty"`
	RoomName     string           `json:"room_name,omitempty"`
	LocationName string           `json:"location_name,omitempty"`
	Name         string           `json:"name"`
	RunType      string           `json:"run_type,omitempty"`
	Pricing      spectree.Pricing `json:"pricing"`
}

// CreateRun appends a cabinet run to a location.
func (s *Service) CreateRun(_ context.Context, id string, req RunRequest, ifMatch string) (*Change, error) {
	node, err := spectree.NewNode(spectree.KindRun, req.Name, &spectree.RunAttrs{
		RunType: req.RunType,
		Pricing: req.Pricing,
	}, spectree.SourceAI)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "create_run", func(f *spectree.Forest) (*Change, error) {
		loc, err := resolve(f, req.LocationPath, func() (spectree.Path, bool) {
			room, ok := f.FindRoom(req.RoomName)
			if !ok {
				return nil, false
			}
			return f.FindLocation(room, req.LocationName)
		})
		if err != nil {
			return nil, fmt.Errorf("specservice: location %q in room %q: %w", req.LocationName, req.RoomName, err)
		}
		p, err := f.AddChild(loc, node)
		if err != nil {
			return nil, err
		}
		return &Change{Path: p.String()}, nil
	})
}

// CabinetsRequest adds cabinets to the run at RunPath, or the run named
// RunName (a name or a run type). RoomName and LocationName narrow the name
// search to one location. When nothing resolves, the most recently created
// run is used.
type CabinetsRequest struct {
	RunPath      string         `json:"run_path,omitempty"`
	RoomName     string         `json:"room_name,omitempty"`
	LocationName string         `json:"location_name,omitempty"`
	RunName      string         `json:"run_name,omitempty"`
	Cabinets     []CabinetInput `json:"cabinets"`
}

// AddCabinets appends every cabinet in req to one run. Change.Path is the run.
func (s *Service) AddCabinets(_ context.Context, id string, req CabinetsRequest, ifMatch string) (*Change, error) {
	if len(req.Cabinets) == 0 {
		return nil, fmt.Errorf("specservice: add cabinets: %w: no cabinets given", apperr.ErrInvalidInput)
	}
	nodes := make([]*spectree.Node, 0, len(req.Cabinets))
	for _, in := range req.Cabinets {
		n, err := cabinetNode(in, spectree.SourceAI)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return s.mutate(id, ifMatch, "add_cabinets", func(f *spectree.Forest) (*Change, error) {
		run, err := s.resolveRun(f, id, req)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if _, err := f.AddChild(run, n); err != nil {
				return nil, err
			}
		}
		return &Change{Path: run.String()}, nil
	})
}

func (s *Service) resolveRun(f *spectree.Forest, id string, req CabinetsRequest) (spectree.Path, error) {
	if req.RunPath != "" {
		p, err := spectree.ParsePath(req.RunPath)
		if err != nil {
			return nil, err
		}
		if _, err := f.Get(p); err == nil {
			return p, nil
		}
	}
	if req.RoomName != "" || req.LocationName != "" {
		if room, ok := f.FindRoom(req.RoomName); ok {
			if loc, ok := f.FindLocation(room, req.LocationName); ok {
				if p, ok := f.FindRun(loc, req.RunName); ok {
					return p, nil
				}
			}
		}
	}
	if req.RunName != "" {
		if p, ok := f.FindByName(spectree.KindRun, req.RunName); ok {
			return p, nil
		}
		if p, ok := findRunByType(f, req.RunName); ok {
			return p, nil
		}
	}
	p, ok := f.MostRecentRun()
	if !ok {
		return nil, fmt.Errorf("specservice: no cabinet run to add to: %w", apperr.ErrNotFound)
	}
	if req.RunPath != "" || req.RunName != "" || req.RoomName != "" || req.LocationName != "" {
		s.logger.Warn("run not found, using most recent run",
			slog.String("project", id),
			slog.String("run_path", req.RunPath),
			slog.String("run_name", req.RunName),
			slog.String("used", p.String()))
	}
	return p, nil
}

// findRunByType returns the first run, in document order, whose run type
// is runType.
func findRunByType(f *spectree.Forest, runType string) (spectree.Path, bool) {
	var found spectree.Path
	f.Walk(func(p spectree.Path, n *spectree.Node) {
		if found != nil || n.Type != spectree.KindLocation {
			return
		}
		if run, ok := f.FindRun(p, runType); ok {
			found = run
		}
	})
	return found, found != nil
}

// DeleteRequest removes the node at Path, or the first node named Name of
// the given Type ("room", "location", "run", "cabinet" or a full kind).
type DeleteRequest struct {
	Path string `json:"path,omitempty"`
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
}

// DeleteEntity removes a node and its subtree. Change.Path is the removed path.
func (s *Service) DeleteEntity(_ context.Context, id string, req DeleteRequest, ifMatch string) (*Change, error) {
	kind, err := kindAlias(req.Type)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, ifMatch, "delete_entity", func(f *spectree.Forest) (*Change, error) {
		p, err := resolve(f, req.Path, func() (spectree.Path, bool) {
			return f.FindByName(kind, req.Name)
		})
		if err != nil {
			return nil, fmt.Errorf("specservice: delete %s %q: %w", req.Type, req.Name, err)
		}
		if err := f.DeleteAt(p); err != nil {
			return nil, err
		}
		return &Change{Path: p.String()}, nil
	})
}

func kindAlias(s string) (spectree.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "location":
		return spectree.KindLocation, nil
	case "run":
		return spectree.KindRun, nil
	}
	k := spectree.Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("specservice: unknown entity type %q: %w", s, apperr.ErrInvalidInput)
	}
	return k, nil
}

// resolve parses path when given and checks it exists, otherwise falls
// back to find.
func resolve(f *spectree.Forest, path string, find func() (spectree.Path, bool)) (spectree.Path, error) {
	if path != "" {
		p, err := spectree.ParsePath(path)
		if err != nil {
			return nil, err
		}
		if _, err := f.Get(p); err != nil {
			return nil, err
		}
		return p, nil
	}
	p, ok := find()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

// ResolvePath finds the first node named name of the given type and
// returns its current path.
func (s *Service) ResolvePath(_ context.Context, id, typ, name string) (string, error) {
	kind, err := kindAlias(typ)
	if err != nil {
		return "", err
	}
	f, _, err := s.load(id)
	if err != nil {
		return "", err
	}
	p, ok := f.FindByName(kind, name)
	if !ok {
		return "", fmt.Errorf("specservice: %s %q: %w", typ, name, apperr.ErrNotFound)
	}
	return p.String(), nil
}
