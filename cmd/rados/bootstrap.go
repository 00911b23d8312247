// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tchaikov/ceph-sub002/cephx"
	"github.com/tchaikov/ceph-sub002/clustermap"
	"github.com/tchaikov/ceph-sub002/config"
	"github.com/tchaikov/ceph-sub002/monclient"
	"github.com/tchaikov/ceph-sub002/objecter"
)

// bootstrapTimeout bounds how long a single CLI invocation waits for
// monitor hunt, subscription, and the first osdmap push before giving
// up, so a misconfigured mon_host fails fast instead of hanging a
// script indefinitely.
const bootstrapTimeout = 30 * time.Second

// session bundles what every subcommand needs and how to tear it down.
type session struct {
	ioctx           *objecter.IoCtx
	mon             *monclient.Client
	stopMetricsHTTP func()
}

func (s *session) Close() {
	s.mon.Reset()
	if s.stopMetricsHTTP != nil {
		s.stopMetricsHTTP()
	}
}

// openSession reads the configuration and keyring named by the global
// flags, hunts a monitor, subscribes to osdmap updates, and resolves
// the --pool flag against the first map received.
func openSession(ctx context.Context) (*session, error) {
	entity, err := cephx.ParseEntityName(flags.name)
	if err != nil {
		return nil, errors.Wrapf(err, "rados: parsing --name %q", flags.name)
	}
	if flags.pool == "" {
		return nil, errors.New("rados: --pool is required")
	}

	cfg, err := config.LoadFile(flags.confPath, entity)
	if err != nil {
		return nil, errors.Wrapf(err, "rados: loading %s", flags.confPath)
	}
	if len(cfg.MonHost) == 0 {
		return nil, errors.New("rados: mon_host is empty")
	}

	kr, err := cephx.LoadFile(cfg.Keyring)
	if err != nil {
		return nil, errors.Wrapf(err, "rados: loading keyring %s", cfg.Keyring)
	}
	secret, ok := kr.Key(entity.String())
	if !ok {
		return nil, errors.Newf("rados: keyring has no entry for %s", entity.String())
	}

	metricsSet := newMetricsSet()
	var stopMetricsHTTP func()
	if flags.metricsAddr != "" {
		stopMetricsHTTP, err = metricsSet.serve(flags.metricsAddr)
		if err != nil {
			return nil, errors.Wrap(err, "rados: starting metrics server")
		}
	}

	monEntity := monclient.EntityName{Type: entity.Type, ID: entity.ID}
	notifier := monclient.NewMapNotifier[*clustermap.Map]()
	dial := monclient.Msgr2Dialer(monEntity, secret, monclient.DialOpts{
		OnOSDMap: func(om monclient.MOSDMap) { applyOSDMap(notifier, om) },
	})

	monCfg := monclient.DefaultConfig()
	monCfg.EntityName = monEntity
	monCfg.MonAddrs = cfg.MonHost
	monCfg.MetricsNamespace = "rados_mon"
	monCfg.Registerer = metricsSet.monRegistry

	mc, err := monclient.New(monCfg, dial)
	if err != nil {
		return nil, errors.Wrap(err, "rados: constructing monitor client")
	}

	bootCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()

	if _, err := mc.Hunt(bootCtx); err != nil {
		return nil, errors.Wrap(err, "rados: hunting for a monitor")
	}
	if err := mc.Subscribe(bootCtx, "osdmap", 0, 0); err != nil {
		return nil, errors.Wrap(err, "rados: subscribing to osdmap")
	}
	m, err := notifier.WaitForMap(bootCtx)
	if err != nil {
		return nil, errors.Wrap(err, "rados: waiting for the initial osdmap")
	}

	poolID, err := resolvePoolID(m, flags.pool)
	if err != nil {
		return nil, err
	}

	objCfg := objecter.DefaultConfig()
	objCfg.EntityName = entity
	objCfg.Secret = secret
	objCfg.MetricsNamespace = "rados_obj"
	objCfg.Registerer = metricsSet.objRegistry

	obj, err := objecter.New(objCfg, notifier)
	if err != nil {
		return nil, errors.Wrap(err, "rados: constructing object client")
	}

	return &session{ioctx: obj.NewIoCtx(poolID), mon: mc, stopMetricsHTTP: stopMetricsHTTP}, nil
}

// applyOSDMap folds one monitor push into notifier: a push may carry a
// full map for an epoch, a run of incrementals, or both (spec §4.3
// "the monitor may push a run of incrementals instead of the full
// map"). Full maps are preferred when present since they need no
// existing snapshot to build on.
func applyOSDMap(notifier *monclient.MapNotifier[*clustermap.Map], om monclient.MOSDMap) {
	for _, bl := range om.FullMaps {
		if m, err := clustermap.DecodeFullMap(bl); err == nil {
			notifier.Post(m)
		}
	}

	if len(om.IncrementalMaps) == 0 {
		return
	}
	cur, ok := notifier.GetLatest()
	if !ok {
		return // nothing to apply an incremental onto yet
	}
	for {
		bl, ok := om.IncrementalMaps[cur.Epoch()+1]
		if !ok {
			return
		}
		inc, err := clustermap.DecodeIncremental(bl)
		if err != nil {
			return
		}
		next, err := cur.Apply(inc)
		if err != nil {
			return
		}
		notifier.Post(next)
		cur = next
	}
}

func resolvePoolID(m *clustermap.Map, s string) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if _, err := m.PoolByID(id); err != nil {
			return 0, errors.Wrapf(err, "rados: resolving --pool %q", s)
		}
		return id, nil
	}
	p, err := m.PoolByName(s)
	if err != nil {
		return 0, errors.Wrapf(err, "rados: resolving --pool %q", s)
	}
	return p.ID, nil
}
