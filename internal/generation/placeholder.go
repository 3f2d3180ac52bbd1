package generation

import "encoding/base64"

// placeholderSVG is the branded stand-in artifact used when a restricted
// locator cannot be fetched server-side. It keeps the look of the product
// rather than surfacing a broken image.
const placeholderSVG = `<svg width="512" height="512" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="grad" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" style="stop-color:#7dd3fc;stop-opacity:1" />
      <stop offset="100%" style="stop-color:#0ea5e9;stop-opacity:1" />
    </linearGradient>
  </defs>
  <rect width="512" height="512" fill="url(#grad)"/>
  <text x="256" y="240" font-family="system-ui" font-size="24" fill="white" text-anchor="middle">Studio Ghibli</text>
  <text x="256" y="280" font-family="system-ui" font-size="18" fill="rgba(255,255,255,0.8)" text-anchor="middle">Your avatar is on its way...</text>
</svg>`

// PlaceholderDataURI returns the placeholder image as an embedded data
// locator suitable for direct rendering by the client.
func PlaceholderDataURI() string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(placeholderSVG))
}
