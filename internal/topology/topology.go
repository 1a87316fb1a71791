// Package topology loads a JSON network description into a running
// [simnet.Kernel], the way the teacher's cmd/internal/topology package
// assembles a netem.StarTopology/PPPTopology from Go constructor calls —
// except here the wiring comes from a JSON file on disk rather than from
// Go call sites (spec.md §6 "Topology input (JSON)").
package topology

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bassosimone/simnet"
	"github.com/google/uuid"
)

// document is the raw JSON shape described in spec.md §6.
type document struct {
	Network struct {
		Hosts []struct {
			ID   string `json:"id"`
			Link string `json:"link"`
		} `json:"hosts"`
		Routers []struct {
			ID    string   `json:"id"`
			Links []string `json:"links"`
		} `json:"routers"`
		Links []struct {
			ID         string   `json:"id"`
			BufferSize float64  `json:"buffer_size"`
			Delay      float64  `json:"delay"`
			Rate       float64  `json:"rate"`
			Nodes      []string `json:"nodes"`
		} `json:"links"`
		Flows []struct {
			ID           string  `json:"id"`
			Src          string  `json:"src"`
			Dest         string  `json:"dest"`
			DataAmt      float64 `json:"data_amt"`
			StartingTime float64 `json:"starting_time"`
			Algorithm    string  `json:"algorithm"`
		} `json:"flows"`
	} `json:"network"`
}

// Unit conversions applied at load time (spec.md §6).
const (
	bufferKBToBits = 8000.0
	delayMsToSec   = 0.001
	rateMbpsToBps  = 1e6
	dataMBToBits   = 8e6
)

// Sentinel configuration errors (spec.md §7 "Configuration errors").
var (
	ErrUnknownNode       = fmt.Errorf("simnet/topology: reference to an undeclared node id")
	ErrDuplicateID       = fmt.Errorf("simnet/topology: duplicate id")
	ErrWrongEndpointCont = fmt.Errorf("simnet/topology: a link must list exactly two node ids")
	ErrNegativeValue     = fmt.Errorf("simnet/topology: negative numeric value")
	ErrUnknownAlgorithm  = fmt.Errorf("simnet/topology: unknown flow algorithm")
)

// Topology is the assembled, running collection of hosts, routers, links,
// and flows produced by [Load]. Its Kernel is ready to [simnet.Kernel.Run].
type Topology struct {
	Kernel  *simnet.Kernel
	Hosts   map[string]*simnet.Host
	Routers map[string]*simnet.Router
	Links   map[string]*simnet.Link
	Flows   map[string]*simnet.Flow
}

// Load reads and parses the topology JSON at path and builds a [Topology]
// wired to a fresh [simnet.Kernel].
func Load(path string, logger simnet.Logger, metrics simnet.Metrics) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadFrom(f, logger, metrics)
}

// loadFrom is the io.Reader-based core of Load, split out for testing.
func loadFrom(r io.Reader, logger simnet.Logger, metrics simnet.Metrics) (*Topology, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("simnet/topology: invalid JSON: %w", err)
	}

	declared := map[string]bool{}
	for _, h := range doc.Network.Hosts {
		if declared[h.ID] {
			return nil, fmt.Errorf("%w: host %s", ErrDuplicateID, h.ID)
		}
		declared[h.ID] = true
	}
	for _, rt := range doc.Network.Routers {
		if declared[rt.ID] {
			return nil, fmt.Errorf("%w: router %s", ErrDuplicateID, rt.ID)
		}
		declared[rt.ID] = true
	}

	kernel := simnet.NewKernel(logger, metrics)
	topo := &Topology{
		Kernel:  kernel,
		Hosts:   map[string]*simnet.Host{},
		Routers: map[string]*simnet.Router{},
		Links:   map[string]*simnet.Link{},
		Flows:   map[string]*simnet.Flow{},
	}

	// Links reference two declared node ids; build the Link objects first
	// (a Link only needs its endpoints' ids, not the Node objects
	// themselves — see link.go), validating as we go.
	linkNeighbour := map[string]map[string]string{} // linkID -> nodeID -> otherNodeID
	for _, l := range doc.Network.Links {
		if l.ID == "" {
			l.ID = "L-" + uuid.NewString()
		}
		if len(l.Nodes) != 2 {
			return nil, fmt.Errorf("%w: link %s has %d node ids", ErrWrongEndpointCont, l.ID, len(l.Nodes))
		}
		a, b := l.Nodes[0], l.Nodes[1]
		if !declared[a] {
			return nil, fmt.Errorf("%w: %s (referenced by link %s)", ErrUnknownNode, a, l.ID)
		}
		if !declared[b] {
			return nil, fmt.Errorf("%w: %s (referenced by link %s)", ErrUnknownNode, b, l.ID)
		}
		if l.BufferSize < 0 || l.Delay < 0 || l.Rate <= 0 {
			return nil, fmt.Errorf("%w: link %s", ErrNegativeValue, l.ID)
		}
		if _, exists := topo.Links[l.ID]; exists {
			return nil, fmt.Errorf("%w: link %s", ErrDuplicateID, l.ID)
		}

		link := simnet.NewLink(
			kernel,
			l.ID,
			l.Rate*rateMbpsToBps,
			l.Delay*delayMsToSec,
			int64(l.BufferSize*bufferKBToBits),
			a,
			b,
		)
		topo.Links[l.ID] = link
		linkNeighbour[l.ID] = map[string]string{a: b, b: a}
	}

	// Hosts.
	for _, h := range doc.Network.Hosts {
		link, ok := topo.Links[h.Link]
		if !ok {
			return nil, fmt.Errorf("%w: %s (host %s's link)", ErrUnknownNode, h.Link, h.ID)
		}
		if _, ok := linkNeighbour[h.Link][h.ID]; !ok {
			return nil, fmt.Errorf("%w: link %s does not connect to host %s", ErrWrongEndpointCont, h.Link, h.ID)
		}
		topo.Hosts[h.ID] = simnet.NewHost(kernel, h.ID, link)
	}

	// Routers.
	for _, rt := range doc.Network.Routers {
		router := simnet.NewRouter(kernel, rt.ID)
		for _, linkID := range rt.Links {
			link, ok := topo.Links[linkID]
			if !ok {
				return nil, fmt.Errorf("%w: %s (router %s's link)", ErrUnknownNode, linkID, rt.ID)
			}
			neighbour, ok := linkNeighbour[linkID][rt.ID]
			if !ok {
				return nil, fmt.Errorf("%w: link %s does not connect to router %s", ErrWrongEndpointCont, linkID, rt.ID)
			}
			router.AddLink(link, neighbour)
		}
		topo.Routers[rt.ID] = router
	}
	for _, router := range topo.Routers {
		router.StartControlPlane()
	}

	// Flows.
	for _, fl := range doc.Network.Flows {
		if fl.ID == "" {
			fl.ID = "F-" + uuid.NewString()
		}
		src, ok := topo.Hosts[fl.Src]
		if !ok {
			return nil, fmt.Errorf("%w: %s (flow %s's src)", ErrUnknownNode, fl.Src, fl.ID)
		}
		dest, ok := topo.Hosts[fl.Dest]
		if !ok {
			return nil, fmt.Errorf("%w: %s (flow %s's dest)", ErrUnknownNode, fl.Dest, fl.ID)
		}
		if fl.DataAmt < 0 || fl.StartingTime < 0 {
			return nil, fmt.Errorf("%w: flow %s", ErrNegativeValue, fl.ID)
		}

		totalBits := int64(fl.DataAmt * dataMBToBits)
		switch fl.Algorithm {
		case "", "reno":
			topo.Flows[fl.ID] = simnet.NewRenoFlow(kernel, fl.ID, src, dest, totalBits, fl.StartingTime)
		case "fast_delay":
			topo.Flows[fl.ID] = simnet.NewFastDelayFlow(kernel, fl.ID, src, dest, totalBits, fl.StartingTime)
		default:
			return nil, fmt.Errorf("%w: %s (flow %s)", ErrUnknownAlgorithm, fl.Algorithm, fl.ID)
		}
	}

	return topo, nil
}
