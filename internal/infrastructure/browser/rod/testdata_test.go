package rod

// Test pages served through httptest.
const (
	GuidePageHTML = `<!DOCTYPE html>
<html>
<head><title>Guide Test</title></head>
<body>
	<div id="guide-root"><button>Widget</button></div>
	<button id="btn">Click Me</button>
	<button style="display:none">Hidden</button>
	<a href="/next" id="next">Next page</a>
	<input id="q" type="text" placeholder="Search" />
	<div role="button" id="divBtn" style="width:0;height:0;overflow:hidden"></div>
	<span role="link" aria-label="Docs">Docs</span>
</body>
</html>`

	NextPageHTML = `<!DOCTYPE html>
<html>
<body>
	<h1 id="title">Next</h1>
	<a href="/" id="home">Home</a>
</body>
</html>`

	RemovableHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="vanish">Vanish</button>
	<button id="stay">Stay</button>
</body>
</html>`
)
