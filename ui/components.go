package ui

import (
	"fmt"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// ---- Message Components ----

func ErrorMessage(message string) g.Node {
	return Div(
		Class("bg-red-100 border border-red-500 text-red-700 px-4 py-3 rounded"),
		g.Attr("role", "alert"),
		g.Text(message),
	)
}

func WarningMessage(message string) g.Node {
	return Div(
		Class("bg-yellow-100 border border-yellow-500 text-yellow-800 px-4 py-3 rounded"),
		g.Text(message),
	)
}

func ErrorPage(code int, message string) g.Node {
	return Page(
		fmt.Sprintf("Error %d", code),
		[]g.Node{
			pageHeader(fmt.Sprintf("Error %d", code)),
			P(g.Text(message)),
			A(Href("/"), Class("text-blue-500 hover:underline"), g.Text("Back to recommendations")),
		},
	)
}

func sidebarSection(title string, lines ...string) g.Node {
	items := make([]g.Node, 0, len(lines))
	for _, line := range lines {
		items = append(items, Li(g.Text(line)))
	}
	return Div(
		Class("mb-6"),
		H2(Class("text-lg font-semibold mb-2"), g.Text(title)),
		Ul(Class("list-disc list-inside text-sm text-gray-700 space-y-1"), g.Group(items)),
	)
}
