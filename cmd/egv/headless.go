package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/execgraph/pkg/config"
	"github.com/vanderheijden86/execgraph/pkg/controller"
	"github.com/vanderheijden86/execgraph/pkg/export"
	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
	"github.com/vanderheijden86/execgraph/pkg/render"
)

// snapshotRequest describes one headless render.
type snapshotRequest struct {
	Out    string
	Select int64
	// Frames caps the physics ticks run before drawing; <= 0 settles fully.
	Frames int
}

// loadGraph runs the preview fetch and, when sel is set, the ego fetch
// synchronously.
func loadGraph(ctx context.Context, ctrl *controller.Controller, f model.Filters, sel int64) error {
	job, err := ctrl.SetFilters(f)
	if err != nil {
		return err
	}
	ctrl.Run(ctx, job)
	if err := ctrl.LastError(); err != nil {
		return err
	}
	if sel != 0 {
		ctrl.Run(ctx, ctrl.Select(sel))
		return ctrl.LastError()
	}
	return nil
}

// exportReport writes the loaded preview or ego neighborhood as Markdown.
func exportReport(ctx context.Context, ctrl *controller.Controller, cfg config.Config, out string, sel int64) error {
	if err := loadGraph(ctx, ctrl, cfg.Filters, sel); err != nil {
		return err
	}
	data := ctrl.Sim().Data()

	title := "Executive Network"
	if c, ok := ctrl.Selected(); ok {
		if e, found := data.Find(c); found {
			title = e.Name + " · Network"
		}
	}
	return export.SaveMarkdownToFile(export.Report{
		Title:     title,
		Filters:   ctrl.Filters(),
		Center:    sel,
		Data:      data,
		Generated: time.Now(),
	}, out)
}

// renderSnapshot loads the graph, lets the layout settle and writes a PNG or
// SVG depending on the output extension.
func renderSnapshot(ctx context.Context, ctrl *controller.Controller, cfg config.Config, req snapshotRequest) (layout.Mode, error) {
	ext := strings.ToLower(filepath.Ext(req.Out))
	if ext != ".png" && ext != ".svg" {
		return layout.Mode{}, fmt.Errorf("unsupported output %q: use .png or .svg", req.Out)
	}

	if err := loadGraph(ctx, ctrl, cfg.Filters, req.Select); err != nil {
		return layout.Mode{}, err
	}

	w, h := ctrl.Viewport()
	if req.Frames > 0 {
		for i := 0; i < req.Frames; i++ {
			if !ctrl.Frame() {
				break
			}
		}
	} else {
		layout.Settle(ctrl.Sim(), ctrl.Params(), w, h)
	}

	r := render.NewRenderer()
	r.Legend = cfg.Canvas.Legend

	if ext == ".png" {
		raster := render.NewRaster(int(w), int(h), cfg.Canvas.DPR)
		mode := r.Draw(raster, ctrl.Sim(), ctrl.Filters())
		return mode, raster.SavePNG(req.Out)
	}

	f, err := os.Create(req.Out)
	if err != nil {
		return layout.Mode{}, err
	}
	canvas := render.NewSVGCanvas(f, int(w), int(h))
	mode := r.Draw(canvas, ctrl.Sim(), ctrl.Filters())
	canvas.Close()
	if err := f.Close(); err != nil {
		return layout.Mode{}, err
	}
	return mode, nil
}
