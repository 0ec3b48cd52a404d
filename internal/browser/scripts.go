package browser

// Page-side helpers run through Evaluate. Each takes the element handle as its
// first argument where it needs one.
const (
	jsTag     = `e => e.tagName.toLowerCase()`
	jsAttr    = `(e, n) => e.getAttribute(n)`
	jsValue   = `e => (e.value === undefined || e.value === null) ? '' : String(e.value)`
	jsChecked = `e => !!e.checked`
	jsSame    = `(a, b) => a === b`
	jsClosest = `(e, s) => e.closest(s)`
	jsParent  = `e => e.parentElement`
	jsClick   = `e => e.click()`
	jsBlur    = `e => e.blur()`
	jsScroll  = `e => e.scrollIntoView({block: 'center', inline: 'center'})`

	jsPointerClick = `e => {
  const r = e.getBoundingClientRect();
  const cx = Math.floor(r.left + r.width / 2);
  const cy = Math.floor(r.top + r.height / 2);
  for (const type of ['pointerdown', 'mousedown', 'mouseup', 'click']) {
    e.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, clientX: cx, clientY: cy, view: window}));
  }
}`

	jsSetNativeValue = `(e, v) => {
  let proto = HTMLInputElement.prototype;
  if (e instanceof HTMLTextAreaElement) proto = HTMLTextAreaElement.prototype;
  if (e instanceof HTMLSelectElement) proto = HTMLSelectElement.prototype;
  const desc = Object.getOwnPropertyDescriptor(proto, 'value');
  if (desc && desc.set) desc.set.call(e, v); else e.value = v;
}`

	jsSetChecked = `(e, c) => { e.checked = c; }`

	jsInsertText = `(e, t) => {
  e.focus();
  const sel = window.getSelection();
  const range = document.createRange();
  range.selectNodeContents(e);
  sel.removeAllRanges();
  sel.addRange(range);
  document.execCommand('insertText', false, t);
}`

	jsDispatch = `(e, ev) => {
  let event;
  if (ev.type === 'keydown' || ev.type === 'keyup') {
    event = new KeyboardEvent(ev.type, {key: ev.key, bubbles: true});
  } else if (ev.type === 'input' && ev.inputType) {
    event = new InputEvent('input', {bubbles: true, inputType: ev.inputType, data: ev.data});
  } else {
    event = new Event(ev.type, {bubbles: true});
  }
  e.dispatchEvent(event);
}`

	jsMark = `e => {
  if (!document.getElementById('__fs_hilite_css')) {
    const s = document.createElement('style');
    s.id = '__fs_hilite_css';
    s.textContent = '.__fs_hilite { outline: 2px dashed #1976d2; outline-offset: 2px; }';
    document.documentElement.appendChild(s);
  }
  e.classList.add('__fs_hilite');
}`

	jsNavigate = `u => { location.assign(u); }`
	jsReplace  = `u => { location.replace(u); }`
	jsBodyText = `() => document.body ? document.body.innerText : ''`

	jsBanner = `t => {
  let el = document.getElementById('__fs_banner');
  if (!el) {
    el = document.createElement('div');
    el.id = '__fs_banner';
    Object.assign(el.style, {
      position: 'fixed', left: '50%', top: '10px', transform: 'translateX(-50%)',
      padding: '8px 12px', background: '#ffe082', color: '#000',
      border: '1px solid #caa84c', borderRadius: '8px', zIndex: 999999, fontFamily: 'system-ui'
    });
    document.body.appendChild(el);
  }
  el.textContent = t;
  clearTimeout(window.__fsBannerTimer);
  window.__fsBannerTimer = setTimeout(() => el.remove(), 2500);
}`

	jsProgress = `t => {
  let el = document.getElementById('__fs_progress');
  if (!el) {
    el = document.createElement('div');
    el.id = '__fs_progress';
    el.setAttribute('role', 'status');
    el.setAttribute('aria-live', 'polite');
    Object.assign(el.style, {
      position: 'fixed', right: '18px', bottom: '18px', width: '320px', padding: '14px 16px',
      background: 'rgba(28,28,30,0.92)', color: '#fff', borderRadius: '12px',
      fontFamily: 'system-ui, sans-serif', zIndex: 1000000
    });
    el.addEventListener('click', () => el.remove());
    document.body.appendChild(el);
  }
  el.textContent = t;
}`

	jsStorageGet    = `k => sessionStorage.getItem(k)`
	jsStorageSet    = `([k, v]) => { sessionStorage.setItem(k, v); }`
	jsStorageRemove = `k => { sessionStorage.removeItem(k); }`

	// jsRankGrids tags every visible container holding at least min bare day
	// numbers with data-fs-grid-rank, best first, and returns how many.
	jsRankGrids = `([containerSel, cellSel, min]) => {
  document.querySelectorAll('[data-fs-grid-rank]').forEach(e => e.removeAttribute('data-fs-grid-rank'));
  const found = [];
  for (const c of document.querySelectorAll(containerSel)) {
    const r = c.getBoundingClientRect();
    if (!(r.width > 0 && r.height > 0)) continue;
    let n = 0;
    for (const cell of c.querySelectorAll(cellSel)) {
      const t = (cell.textContent || '').trim();
      if (/^\d{1,2}$/.test(t) && +t >= 1 && +t <= 31) n++;
    }
    if (n >= min) found.push([c, n]);
  }
  found.sort((a, b) => b[1] - a[1]);
  found.forEach(([c], i) => c.setAttribute('data-fs-grid-rank', String(i)));
  return found.length;
}`
)
