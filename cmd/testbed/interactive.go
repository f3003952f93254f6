package main

import (
	"context"
	"fmt"
	"time"

	"github.com/akmonengine/testbed"
	"github.com/akmonengine/testbed/draw"
	"github.com/akmonengine/testbed/term"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const (
	// rayDepth is how far in front of and behind the view plane pointer rays reach
	rayDepth = 100.0
	panStep  = 2.0
)

// interactive runs one scene in the terminal until q or Escape. The left
// button drags bodies, p pauses, n steps once while paused and the arrows
// and +/- move the camera.
func interactive(ctx context.Context, name string, opts options, logger *zap.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	backend := term.New(screen, term.DefaultCamera())
	s, err := newSession(name, opts, logger, testbed.WithRenderer(draw.NewQueue(backend)))
	if err != nil {
		return err
	}
	defer s.scene.Close()

	events := make(chan tcell.Event)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	hertz := s.test.Settings().Hertz
	if hertz <= 0 {
		hertz = testbed.DefaultSettings().Hertz
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / hertz))
	defer ticker.Stop()

	p := &pointer{test: s.test, backend: backend}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !handleKey(ev, s.test.Settings(), backend) {
					return nil
				}
			case *tcell.EventMouse:
				p.handle(ev)
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			backend.Clear()
			s.scene.Step()
			backend.Flush()
		}
	}
}

// handleKey applies a key press, false means quit.
func handleKey(ev *tcell.EventKey, settings *testbed.Settings, backend *term.Backend) bool {
	cam := &backend.Camera
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		cam.Center = cam.Center.Sub(mgl64.Vec3{panStep, 0, 0})
	case tcell.KeyRight:
		cam.Center = cam.Center.Add(mgl64.Vec3{panStep, 0, 0})
	case tcell.KeyUp:
		cam.Center = cam.Center.Add(mgl64.Vec3{0, panStep, 0})
	case tcell.KeyDown:
		cam.Center = cam.Center.Sub(mgl64.Vec3{0, panStep, 0})
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'p':
			settings.Pause = !settings.Pause
		case 'n':
			settings.Pause = true
			settings.SingleStep = true
		case '+':
			cam.Scale *= 1.25
		case '-':
			cam.Scale /= 1.25
		case 'b':
			settings.DrawBounds = !settings.DrawBounds
		case 'c':
			settings.DrawContactPoints = !settings.DrawContactPoints
		case 's':
			settings.Sleep = !settings.Sleep
		}
	}
	return true
}

// pointer turns button 1 presses, drags and releases into pointer events.
type pointer struct {
	test    *testbed.Test
	backend *term.Backend
	pressed bool
}

func (p *pointer) handle(ev *tcell.EventMouse) {
	x, y := ev.Position()
	ray := testbed.Ray3{
		A: p.backend.Unproject(x, y, rayDepth),
		B: p.backend.Unproject(x, y, -rayDepth),
	}

	down := ev.Buttons()&tcell.Button1 != 0
	switch {
	case down && !p.pressed:
		p.test.MouseDown(ray)
	case down:
		p.test.MouseMove(ray)
	case p.pressed:
		p.test.MouseUp(ray)
	}
	p.pressed = down
}
