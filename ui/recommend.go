package ui

import (
	"strconv"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"

	"github.com/ad-match/site/recommend"
)

const (
	EnterInterestsMessage    = "Please enter your interests to get recommendations."
	NoRecommendationsMessage = "No recommendations found. Try different keywords!"
)

// MaxPageCount is the largest count offered by the page's selector
const MaxPageCount = 10

// HomePage renders the query form and an empty results area
func HomePage(defaultCount int) g.Node {
	return Page("Ad Recommendations", []g.Node{
		pageHeader("Personalized Ad Recommendations"),
		Div(
			Class("flex flex-col md:flex-row gap-8"),
			Div(
				Class("md:w-3/4"),
				searchForm(defaultCount),
				Div(ID("results"), Class("mt-6 space-y-4")),
			),
			Aside(
				Class("md:w-1/4"),
				sidebarSection("How it works",
					"Describe what you are interested in.",
					"Your words are turned into an embedding.",
					"The closest ads by meaning are shown.",
				),
				sidebarSection("Try",
					"gaming laptop",
					"healthy breakfast",
					"running gear",
				),
			),
		),
	})
}

func searchForm(defaultCount int) g.Node {
	options := make([]g.Node, 0, MaxPageCount)
	for i := 1; i <= MaxPageCount; i++ {
		options = append(options, Option(
			Value(strconv.Itoa(i)),
			g.If(i == defaultCount, Selected()),
			g.Text(strconv.Itoa(i)),
		))
	}

	return Form(
		Class("space-y-4"),
		hx.Get("/recommendations"),
		hx.Target("#results"),
		hx.Swap("innerHTML"),
		hx.Indicator("#loading"),
		Div(
			Label(For("q"), Class("block font-bold mb-1"), g.Text("What are you interested in?")),
			Input(
				Type("text"),
				ID("q"),
				Name("q"),
				Placeholder("e.g. gaming laptop, organic coffee, running shoes"),
				Class("w-full p-2 border rounded"),
			),
		),
		Div(
			Class("flex items-center gap-4"),
			Label(For("k"), Class("font-bold"), g.Text("Number of recommendations")),
			Select(ID("k"), Name("k"), Class("p-2 border rounded"), g.Group(options)),
			Button(
				Type("submit"),
				Class("px-4 py-2 rounded bg-blue-500 text-white hover:bg-blue-600"),
				g.Text("Get Recommendations"),
			),
			Span(ID("loading"), Class("htmx-indicator text-gray-500"), g.Text("Finding ads...")),
		),
	)
}

// Recommendations renders the result fragment for a query
func Recommendations(views []recommend.AdView) g.Node {
	if len(views) == 0 {
		return WarningMessage(NoRecommendationsMessage)
	}
	cards := make([]g.Node, 0, len(views))
	for _, v := range views {
		cards = append(cards, AdCard(v))
	}
	return Div(
		Class("space-y-4"),
		H2(Class("text-2xl font-semibold"), g.Text("Recommended for you")),
		g.Group(cards),
	)
}

// AdCard renders one recommended ad. The image is omitted when the ad has none.
func AdCard(v recommend.AdView) g.Node {
	return Div(
		Class("flex gap-4 p-4 border rounded-lg shadow-sm bg-white"),
		g.If(v.HasImage(),
			Img(Src(v.ImageURL), Alt(v.Tagline), Class("w-32 h-32 object-cover rounded")),
		),
		Div(
			H3(Class("text-xl font-bold"), g.Text(v.Tagline)),
			P(Class("text-gray-700 my-2"), g.Text(v.Text)),
			A(
				Href(v.Link),
				Target("_blank"),
				Rel("noopener noreferrer"),
				Class("text-blue-500 hover:underline"),
				g.Text("Learn More"),
			),
		),
	)
}
