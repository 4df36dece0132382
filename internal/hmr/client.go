package hmr

import (
	"fmt"
	"strconv"
)

// ClientScript returns the browser module served in place of Vite's client
// when pages are reloaded through the hub. It connects to the hub under base
// and reloads the page on every full-reload payload, reconnecting with
// backoff when the socket drops. When upstream is non-empty the module first
// imports it, so Vite's own client keeps handling in-place updates.
func ClientScript(base, upstream string) string {
	var head string
	if upstream != "" {
		head = fmt.Sprintf("import %s;\n", strconv.Quote(upstream))
	}
	return head + fmt.Sprintf(`const socketPath = %s;
let delay = 250;

function connect() {
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(proto + "//" + location.host + socketPath);
  ws.addEventListener("open", () => { delay = 250; });
  ws.addEventListener("message", (ev) => {
    let msg;
    try { msg = JSON.parse(ev.data); } catch { return; }
    if (msg.type === %s) {
      location.reload();
    }
  });
  ws.addEventListener("close", () => {
    setTimeout(connect, delay);
    delay = Math.min(delay * 2, 5000);
  });
}

connect();
`, strconv.Quote(base+SocketPath), strconv.Quote(TypeFullReload))
}
