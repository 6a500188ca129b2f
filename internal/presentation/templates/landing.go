package templates

import "html/template"

var landingTmpl = template.Must(template.New("landing").Parse(
	`<header id="inicio" class="hero">` +
		`<picture class="hero-bg">` +
		`<source type="image/webp" srcset="/media/images/hero-480w.webp 480w, /media/images/hero-768w.webp 768w, /media/images/hero-1024w.webp 1024w, /media/images/hero-1200w.webp 1200w" sizes="100vw">` +
		`<img src="/media/images/hero-1200w.jpg" alt="" width="1200" height="630" fetchpriority="high">` +
		`</picture>` +
		`<h1>Transforme Sua <span>Saúde Definitivamente!</span></h1>` +
		`<p class="hero-lead">Descubra o nutracêutico revolucionário que está mudando vidas!</p>` +
		`<ul class="hero-proof">` +
		`<li>⭐ 4.9/5 (15.847 avaliações)</li>` +
		`<li>✓ Garantia de 60 dias</li>` +
		`<li>🧬 Base científica comprovada</li>` +
		`</ul>` +
		`<p class="hero-count">+50.000 Vidas Transformadas pela Ciência</p>` +
		`<a class="cta cta--header" href="#como-funciona" data-cta="header_cta" data-position="hero_section" data-product-id="video">QUERO GARANTIR O MEU!</a>` +
		`</header>` +
		`<section id="como-funciona" class="video-section">{{.Video}}</section>` +
		`<section class="countdown">` +
		`<h2>🔥 A PROMOÇÃO TERMINA EM:</h2>` +
		`<div class="countdown-clock" data-countdown="{{.CountdownSeconds}}">` +
		`<span data-unit="hours">23</span><span data-unit="minutes">59</span><span data-unit="seconds">59</span>` +
		`</div>` +
		`</section>` +
		`{{.Products}}` +
		`{{.Testimonials}}` +
		`<section class="final-cta">` +
		`<h2>Sua nova vida começa hoje</h2>` +
		`<a class="cta cta--final" href="{{.FinalCTAURL}}" data-cta="final_cta" data-position="bottom_page" data-product-id="premium">QUERO TRANSFORMAR MINHA SAÚDE AGORA</a>` +
		`</section>`,
))

// LandingData is everything the VSL landing page shows.
type LandingData struct {
	VideoID          string
	VideoTitle       string
	Products         []ProductCard
	FinalCTAURL      string
	CountdownSeconds int
}

type landingView struct {
	Video            template.HTML
	Products         template.HTML
	Testimonials     template.HTML
	FinalCTAURL      string
	CountdownSeconds int
}

// RenderLanding renders the landing page body.
func RenderLanding(data LandingData) string {
	if data.CountdownSeconds <= 0 {
		data.CountdownSeconds = 24*60*60 - 1
	}
	return execute(landingTmpl, landingView{
		Video:            template.HTML(RenderVideoPlayer(data.VideoID, data.VideoTitle)),
		Products:         template.HTML(RenderProductSection(data.Products)),
		Testimonials:     template.HTML(RenderTestimonials(Testimonials)),
		FinalCTAURL:      data.FinalCTAURL,
		CountdownSeconds: data.CountdownSeconds,
	})
}
