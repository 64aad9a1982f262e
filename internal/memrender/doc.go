// Package memrender is a small in-memory renderer for function components.
//
// It exists so sessions, scenarios and the CLI have a real renderer to
// drive. It reconciles element trees against the previous render by key (or
// position), keeps hook state across renders, and exposes each committed
// tree as an immutable snapshot of *Node values.
//
// Components are plain functions:
//
//	Counter := memrender.Define("Counter", func(ctx *memrender.Context, props element.Props) any {
//		n, setN := memrender.UseState(ctx, 0)
//		return element.H("button", element.Props{
//			"onClick": func() { setN(n + 1) },
//		}, n)
//	})
//
// State updates mark the root dirty; the tree re-renders and effects run
// when the session flushes at the end of a commit. Async work belongs on
// Context.Loop so commits can capture and drain it.
//
// Inside element.StrictMode, mount effects run, clean up, and run again.
package memrender
