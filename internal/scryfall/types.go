package scryfall

import "strconv"

// Card is the subset of Scryfall's card object the pipeline consumes.
// Double-faced cards keep imagery and colors on card_faces instead of the
// top level, so use the accessor methods rather than the raw fields.
type Card struct {
	Name            string     `json:"name"`
	Set             string     `json:"set"`
	SetName         string     `json:"set_name"`
	CollectorNumber string     `json:"collector_number"`
	Rarity          string     `json:"rarity"`
	TypeLine        string     `json:"type_line"`
	Colors          []string   `json:"colors"`
	ColorIdentity   []string   `json:"color_identity"`
	ImageURIs       *ImageURIs `json:"image_uris,omitempty"`
	CardFaces       []CardFace `json:"card_faces,omitempty"`
	Prices          Prices     `json:"prices"`
	ScryfallURI     string     `json:"scryfall_uri"`
}

// CardFace holds the per-face fields of a double-faced card.
type CardFace struct {
	Name      string     `json:"name"`
	TypeLine  string     `json:"type_line"`
	Colors    []string   `json:"colors"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs holds the rendered image sizes Scryfall serves for a card.
type ImageURIs struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
}

// Prices holds printed prices as decimal strings; null means unknown.
type Prices struct {
	USD     *string `json:"usd"`
	USDFoil *string `json:"usd_foil"`
	EUR     *string `json:"eur"`
	EURFoil *string `json:"eur_foil"`
}

// Price returns the first known price in the order usd, usd_foil, eur,
// eur_foil. ok is false when every variant is null or unparseable.
func (p Prices) Price() (float64, bool) {
	for _, s := range []*string{p.USD, p.USDFoil, p.EUR, p.EURFoil} {
		if s == nil || *s == "" {
			continue
		}
		value, err := strconv.ParseFloat(*s, 64)
		if err != nil {
			continue
		}
		return value, true
	}
	return 0, false
}

// ImageURI returns the normal-size image for the card, falling back to the
// front face for double-faced cards. Empty when Scryfall has no imagery.
func (c *Card) ImageURI() string {
	if c.ImageURIs != nil && c.ImageURIs.Normal != "" {
		return c.ImageURIs.Normal
	}
	if len(c.CardFaces) > 0 && c.CardFaces[0].ImageURIs != nil {
		return c.CardFaces[0].ImageURIs.Normal
	}
	return ""
}

// CardColors returns the card's colors, falling back to the front face and
// then to color identity for cards that keep colors per face.
func (c *Card) CardColors() []string {
	if len(c.Colors) > 0 {
		return c.Colors
	}
	if len(c.CardFaces) > 0 && len(c.CardFaces[0].Colors) > 0 {
		return c.CardFaces[0].Colors
	}
	return c.ColorIdentity
}

// CardTypeLine returns the type line, preferring the front face for
// double-faced cards whose top-level type line joins both faces.
func (c *Card) CardTypeLine() string {
	if len(c.CardFaces) > 0 && c.CardFaces[0].TypeLine != "" {
		return c.CardFaces[0].TypeLine
	}
	return c.TypeLine
}
