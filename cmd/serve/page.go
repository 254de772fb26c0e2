package main

// indexHTML is the slider page: one control per process parameter, a
// canvas that redraws the prediction on every change.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Prediction explorer</title>
<style>
body { font-family: sans-serif; margin: 2em; display: flex; gap: 3em; }
#controls { min-width: 22em; }
.control { margin-bottom: 1em; }
.control label { display: block; font-weight: bold; margin-bottom: .2em; }
.control input[type=range] { width: 100%; }
.value { color: #555; font-size: .9em; }
canvas { border: 1px solid #ccc; }
</style>
</head>
<body>
<div id="controls">
  <h2>Process parameters</h2>
  <div id="params"></div>
  <div class="control">
    <label for="output">Output</label>
    <select id="output"></select>
  </div>
</div>
<div>
  <h2 id="title"></h2>
  <canvas id="plot" width="700" height="500"></canvas>
</div>
<script>
let meta = null;

async function init() {
  meta = await (await fetch('api/meta')).json();
  document.getElementById('title').textContent = meta.kind + ' prediction';
  const box = document.getElementById('params');
  for (const p of meta.parameters) {
    const div = document.createElement('div');
    div.className = 'control';
    const label = document.createElement('label');
    label.textContent = p.name;
    div.appendChild(label);
    let input;
    if (p.categorical) {
      input = document.createElement('select');
      for (const v of p.values) {
        const opt = document.createElement('option');
        opt.value = v; opt.textContent = v;
        input.appendChild(opt);
      }
    } else {
      input = document.createElement('input');
      input.type = 'range';
      input.min = p.min; input.max = p.max;
      input.step = (p.max - p.min) / 100;
      input.value = p.default;
    }
    input.id = 'param-' + p.name;
    input.addEventListener('input', refresh);
    div.appendChild(input);
    const val = document.createElement('span');
    val.className = 'value';
    val.id = 'value-' + p.name;
    div.appendChild(val);
    box.appendChild(div);
  }
  const sel = document.getElementById('output');
  meta.outputs.forEach((name, i) => {
    const opt = document.createElement('option');
    opt.value = i; opt.textContent = name;
    sel.appendChild(opt);
  });
  sel.addEventListener('input', refresh);
  refresh();
}

async function refresh() {
  const query = new URLSearchParams();
  for (const p of meta.parameters) {
    const v = document.getElementById('param-' + p.name).value;
    document.getElementById('value-' + p.name).textContent = Number(v).toPrecision(4);
    query.set(p.name, v);
  }
  const data = await (await fetch('api/predict?' + query)).json();
  if (data.error) { console.error(data.error); return; }
  const out = Number(document.getElementById('output').value);
  if (meta.kind === 'cut') drawCut(data, out); else drawProjection(data, out);
}

function drawCut(data, out) {
  const canvas = document.getElementById('plot');
  const ctx = canvas.getContext('2d');
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  const xs = data.positions, ys = data.outputs[out];
  const xMin = Math.min(...xs), xMax = Math.max(...xs);
  const yMin = Math.min(...ys), yMax = Math.max(...ys);
  const pad = 40;
  const sx = x => pad + (x - xMin) / (xMax - xMin || 1) * (canvas.width - 2 * pad);
  const sy = y => canvas.height - pad - (y - yMin) / (yMax - yMin || 1) * (canvas.height - 2 * pad);
  ctx.strokeStyle = '#1f77b4';
  ctx.beginPath();
  xs.forEach((x, i) => i ? ctx.lineTo(sx(x), sy(ys[i])) : ctx.moveTo(sx(x), sy(ys[i])));
  ctx.stroke();
  ctx.fillStyle = '#333';
  ctx.fillText(yMax.toPrecision(4), 2, pad);
  ctx.fillText(yMin.toPrecision(4), 2, canvas.height - pad);
}

function drawProjection(data, out) {
  const canvas = document.getElementById('plot');
  const ctx = canvas.getContext('2d');
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  const values = data.outputs[out];
  const vMin = Math.min(...values), vMax = Math.max(...values);
  const cw = canvas.width / data.nx, ch = canvas.height / data.ny;
  for (let i = 0; i < data.nx; i++) {
    for (let j = 0; j < data.ny; j++) {
      const t = (values[i * data.ny + j] - vMin) / (vMax - vMin || 1);
      ctx.fillStyle = 'hsl(' + (240 - 240 * t) + ',80%,50%)';
      ctx.fillRect(i * cw, canvas.height - (j + 1) * ch, cw + 1, ch + 1);
    }
  }
  ctx.fillStyle = '#fff';
  ctx.fillText(vMin.toPrecision(4) + ' .. ' + vMax.toPrecision(4), 8, 14);
}

init();
</script>
</body>
</html>
`
