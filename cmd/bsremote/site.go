package main

import (
	"fmt"
	"time"

	"github.com/efroemling/ballistica-sub005/internal/fulfill"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// demoSite is the built-in local fulfiller: a handful of pages that
// exercise every protocol feature without a server.
func demoSite(req *protocol.Request) (*protocol.Response, error) {
	switch req.Path {
	case "", "/":
		return demoMenu(), nil

	case "/slow":
		time.Sleep(3 * time.Second)
		return &protocol.Response{
			Tag: protocol.TagResponsePage,
			Page: protocol.Page{
				Title: "Worth the wait",
				Rows: []protocol.Row{{
					Buttons: []protocol.Button{{
						ID: "back", Label: "Back",
						Action: protocol.NewLocal(true, nil, nil),
					}},
				}},
			},
		}, nil

	case "/timedactions":
		// Shows briefly, then closes itself.
		return &protocol.Response{
			Tag: protocol.TagResponsePage,
			Page: protocol.Page{
				Title: fmt.Sprintf("Closing shortly (val=%s)", req.Args["val"]),
				Rows: []protocol.Row{{
					Buttons: []protocol.Button{{
						ID: "wait", Label: "...",
					}},
				}},
			},
			Timed: &protocol.TimedAction{
				Action: *protocol.NewLocal(true, nil, nil),
				Delay:  time.Second,
			},
		}, nil

	case "/effects":
		return &protocol.Response{
			Tag: protocol.TagResponsePage,
			Page: protocol.Page{
				Title: "Ta-da",
				Rows: []protocol.Row{{
					Buttons: []protocol.Button{{
						ID: "back", Label: "Back",
						Action: protocol.NewLocal(true, nil, nil),
					}},
				}},
			},
			Effects: []protocol.ClientEffect{
				protocol.PlaySound("fanfare"),
				protocol.ScreenMessage("You made it!", false),
			},
		}, nil

	case "/clean-error":
		return nil, &fulfill.CleanError{Message: "That page is members-only."}

	case "/broken":
		panic("demo page explosion")

	case "/construction":
		return protocol.ErrorResponse(protocol.ErrorUnderConstruction, ""), nil

	default:
		return nil, &fulfill.CleanError{
			Message: fmt.Sprintf("No such page: %s", req.Path),
		}
	}
}

func demoMenu() *protocol.Response {
	get := func(path string) *protocol.Request {
		return protocol.NewRequest(path, protocol.MethodGet, nil)
	}
	return &protocol.Response{
		Tag: protocol.TagResponsePage,
		Page: protocol.Page{
			Title: "Demo pages",
			Rows: []protocol.Row{
				{
					Header: "Behavior",
					Buttons: []protocol.Button{
						{ID: "slow", Label: "Slow page (3s)", Action: protocol.NewBrowse(get("/slow"))},
						{ID: "timed", Label: "Self-closing page",
							Action: protocol.NewBrowse(protocol.NewRequest("/timedactions", protocol.MethodGet,
								map[string]string{"val": "1"}))},
						{ID: "effects", Label: "Effects on arrival", Action: protocol.NewBrowse(get("/effects"))},
						{ID: "refresh", Label: "Reload this menu", Action: protocol.NewReplace(get("/"))},
					},
				},
				{
					Header: "Failure modes",
					Buttons: []protocol.Button{
						{ID: "clean", Label: "Clean error", Action: protocol.NewBrowse(get("/clean-error"))},
						{ID: "broken", Label: "Broken page", Action: protocol.NewBrowse(get("/broken"))},
						{ID: "construction", Label: "Under construction", Action: protocol.NewBrowse(get("/construction"))},
					},
				},
			},
		},
	}
}
