/*
Package umlpad is the render-orchestration core of a PlantUML editor.

It decides when diagram source is sent to an external rendering service, how a
slow or unreachable service is tolerated, and how the rendered image is zoomed
and panned. The text widget, the rendering service and the history storage are
collaborators plugged in through the interfaces in pkg/ports.

# Components

  - Connectivity Supervisor (pkg/supervisor): probes the service at startup with
    a bounded backoff and owns the Checking/Online/Offline signal.
  - Input Debounce Pipeline (pkg/debounce): turns keystrokes into commits after a
    quiet period, or immediately on a manual trigger.
  - Render Request Coordinator (pkg/coordinator): keeps at most one render in
    flight, races it against a timeout and classifies failures.
  - Viewport Transform Engine (pkg/viewport): clamped zoom and drag-to-pan.
  - History Store (pkg/history): a bounded, newest-first list of saved sources.

# Usage

The Editor wires the components together:

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/umlpad"
		"github.com/aretw0/umlpad/pkg/adapters/plantuml"
	)

	func main() {
		editor, err := umlpad.New(plantuml.New(""))
		if err != nil {
			log.Fatal(err)
		}
		defer editor.Close()

		if err := editor.Start(context.Background()); err != nil {
			log.Fatal(err) // service never answered
		}

		editor.Edit("@startuml\nAlice -> Bob: hi\n@enduml")
		// ... three seconds after the last edit the diagram is rendered.
		log.Println(editor.Status().Render.Image)
	}
*/
package umlpad
