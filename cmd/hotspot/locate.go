package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotspot-prioritizer/hotspot/internal/adapter/overpass"
	"github.com/hotspot-prioritizer/hotspot/internal/adapter/poicache"
	"github.com/hotspot-prioritizer/hotspot/pkg/location"
)

type locateOpts struct {
	lat, lon float64
	radius   int
	endpoint string
	redisURL string
	timeout  time.Duration
}

func newLocateCmd(g *globalOpts) *cobra.Command {
	var opts locateOpts

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Resolve the location context of a coordinate from OpenStreetMap",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, g, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Latitude (required)")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "Longitude (required)")
	cmd.Flags().IntVar(&opts.radius, "radius", 0, "Search radius in meters (default: config)")
	cmd.Flags().StringVar(&opts.endpoint, "overpass-url", overpass.DefaultEndpoint, "Overpass API endpoint")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "Cache lookups in Redis")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Lookup timeout")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func runLocate(cmd *cobra.Command, g *globalOpts, opts locateOpts) error {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return err
	}
	radius := opts.radius
	if radius <= 0 {
		radius = cfg.Location.Radius
	}
	logger := newLogger(g)

	var src location.POISource = overpass.New(overpass.Config{Endpoint: opts.endpoint, Timeout: opts.timeout})
	if opts.redisURL != "" {
		cache, err := poicache.NewFromURL(opts.redisURL, src, poicache.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer cache.Close()
		src = cache
	}

	var lookupErr error
	resolver := location.NewResolver(src,
		location.WithRadius(radius),
		location.WithLogger(logger),
		location.WithFailureHook(func(err error) { lookupErr = err }),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	lc := resolver.Resolve(ctx, opts.lat, opts.lon)
	if lookupErr != nil {
		return fmt.Errorf("location lookup: %w", lookupErr)
	}
	return writeJSON(cmd.OutOrStdout(), lc)
}
