package rod

// scanJS stores the scanned nodes in window.__guideScan so later calls can
// address them by ordinal.
const scanJS = `(selectors, rootId) => {
	const root = rootId ? document.getElementById(rootId) : null;
	const domPath = (el) => {
		const parts = [];
		for (let n = el; n && n.nodeType === 1; n = n.parentElement) {
			let i = 1;
			for (let s = n.previousElementSibling; s; s = s.previousElementSibling) {
				if (s.tagName === n.tagName) i++;
			}
			parts.unshift(n.tagName.toLowerCase() + ':nth-of-type(' + i + ')');
		}
		return parts.join('>');
	};
	const nodes = [];
	const out = [];
	selectors.forEach(sel => {
		document.querySelectorAll(sel).forEach(el => {
			if (root && root.contains(el)) return;
			const r = el.getBoundingClientRect();
			if (r.width === 0 || r.height === 0) return;
			const st = window.getComputedStyle(el);
			if (st.display === 'none' || st.visibility === 'hidden') return;
			const text = (el.textContent || el.value || el.placeholder ||
				el.getAttribute('aria-label') || el.getAttribute('title') || el.getAttribute('alt') || '').trim();
			nodes.push(el);
			out.push({
				text: text,
				type: el.tagName.toLowerCase(),
				role: el.getAttribute('role') || '',
				href: el.getAttribute('href') || '',
				className: typeof el.className === 'string' ? el.className : (el.getAttribute('class') || ''),
				domId: el.id || '',
				domPath: domPath(el),
				x: r.x, y: r.y, width: r.width, height: r.height,
			});
		});
	});
	window.__guideScan = nodes;
	return out;
}`

const highlightJS = `(ordinal, rootId, heading, instruction) => {
	const el = (window.__guideScan || [])[ordinal];
	if (!el || !el.isConnected) return false;
	let root = document.getElementById(rootId);
	if (!root) {
		root = document.createElement('div');
		root.id = rootId;
		document.body.appendChild(root);
	}
	root.replaceChildren();
	el.scrollIntoView({block: 'center', inline: 'nearest'});

	const r = el.getBoundingClientRect();
	const sx = window.scrollX, sy = window.scrollY;
	const box = document.createElement('div');
	box.style.cssText = 'position:absolute;pointer-events:none;z-index:2147483646;' +
		'border:3px solid #667eea;border-radius:6px;box-shadow:0 0 0 4px rgba(102,126,234,.3);' +
		'left:' + (r.left + sx - 4) + 'px;top:' + (r.top + sy - 4) + 'px;' +
		'width:' + (r.width + 8) + 'px;height:' + (r.height + 8) + 'px;';

	const tip = document.createElement('div');
	tip.style.cssText = 'position:absolute;pointer-events:none;z-index:2147483647;max-width:280px;' +
		'padding:8px 12px;border-radius:6px;background:#1f2937;color:#fff;font:13px/1.4 sans-serif;';
	const head = document.createElement('strong');
	head.textContent = heading;
	const body = document.createElement('div');
	body.textContent = instruction;
	tip.append(head, body);
	root.append(box, tip);

	const above = r.top - tip.offsetHeight - 12;
	tip.style.left = (Math.max(8, r.left) + sx) + 'px';
	tip.style.top = ((above < 0 ? r.bottom + 12 : above) + sy) + 'px';
	return true;
}`

const clearHighlightJS = `(rootId) => {
	const root = document.getElementById(rootId);
	if (root) root.replaceChildren();
}`

// awaitJS resolves once: on the first click, input, change or Enter keydown
// on the element, or with gone when the element leaves the document.
const awaitJS = `(ordinal) => new Promise(resolve => {
	const el = (window.__guideScan || [])[ordinal];
	if (!el || !el.isConnected) {
		resolve({gone: true});
		return;
	}
	const types = ['click', 'input', 'change', 'keydown'];
	const handlers = {};
	let observer;
	const finish = (result) => {
		types.forEach(t => el.removeEventListener(t, handlers[t], true));
		if (observer) observer.disconnect();
		resolve(result);
	};
	types.forEach(t => {
		handlers[t] = (e) => {
			if (t === 'keydown' && e.key !== 'Enter') return;
			finish({kind: t});
		};
		el.addEventListener(t, handlers[t], true);
	});
	observer = new MutationObserver(() => {
		if (!el.isConnected) finish({gone: true});
	});
	observer.observe(document.documentElement, {childList: true, subtree: true});
})`

// shortcutJS binds Alt+Shift+E to the exposed completion callback.
const shortcutJS = `() => {
	if (window.__guideShortcut) return;
	window.__guideShortcut = true;
	document.addEventListener('keydown', (e) => {
		if (e.altKey && e.shiftKey && e.code === 'KeyE') {
			e.preventDefault();
			if (window.__guideComplete) window.__guideComplete({});
		}
	}, true);
}`

const shortcutBinding = "__guideComplete"
