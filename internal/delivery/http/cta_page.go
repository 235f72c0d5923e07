package http

import "html/template"

const ctaTemplateName = "cta"

var ctaTemplate = template.Must(template.New(ctaTemplateName).Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>CTA Stats</title>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;padding:24px;color:#1a202c}
.card{max-width:560px;background:#fff;border:1px solid #e2e8f0;border-radius:12px;padding:20px;box-shadow:0 6px 16px rgba(0,0,0,.06)}
.row{display:flex;justify-content:space-between;margin:8px 0}
.h{font-weight:600}
</style>
</head>
<body>
  <div class="card">
    <div class="row h"><div>CTA</div><div>Count</div></div>
    <div class="row"><div>iOS Add to Home Screen</div><div>{{.IOS}}</div></div>
    <div class="row"><div>Android Install App</div><div>{{.Android}}</div></div>
    <div class="row"><div>Desktop Bookmark</div><div>{{.Desktop}}</div></div>
    <hr />
    <div class="row h"><div>Total</div><div>{{.Total}}</div></div>
  </div>
</body></html>
`))
