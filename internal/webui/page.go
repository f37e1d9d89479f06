package webui

// indexHTML is the explorer page. It reloads the frame whenever /version
// changes and posts batched input events to /events.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Fractal explorer</title>
<style>
body { margin: 0; background: #000; color: #ccc; font-family: sans-serif; }
#frame { display: block; cursor: grab; user-select: none; }
#frame.dragging { cursor: grabbing; }
#bar { position: fixed; right: 8px; top: 8px; }
</style>
</head>
<body>
<div id="bar"><button id="quit">Quit</button></div>
<img id="frame" src="frame.png" draggable="false">
<script>
(function () {
  var img = document.getElementById("frame");
  var pending = [];
  var primary = false;
  var version = "";

  function queue(ev) { pending.push(ev); }

  function flush() {
    if (pending.length === 0) return;
    var batch = pending;
    pending = [];
    fetch("events", { method: "POST", body: JSON.stringify(batch) });
  }

  function refresh() {
    fetch("version", { cache: "no-store" })
      .then(function (r) { return r.text(); })
      .then(function (v) {
        if (v !== version) {
          version = v;
          img.src = "frame.png?v=" + v;
        }
      })
      .catch(function () {});
  }

  img.addEventListener("mousedown", function (e) {
    if (e.button === 0) { primary = true; img.classList.add("dragging"); }
  });
  window.addEventListener("mouseup", function (e) {
    if (e.button === 0) { primary = false; img.classList.remove("dragging"); }
  });
  img.addEventListener("mousemove", function (e) {
    queue({ type: "move", dx: e.movementX, dy: e.movementY, primary: primary });
  });
  img.addEventListener("wheel", function (e) {
    e.preventDefault();
    queue({ type: "wheel", dy: -e.deltaY / 100 });
  }, { passive: false });
  document.getElementById("quit").addEventListener("click", function () {
    queue({ type: "quit" });
    flush();
  });

  setInterval(flush, 16);
  setInterval(refresh, 100);
})();
</script>
</body>
</html>
`
