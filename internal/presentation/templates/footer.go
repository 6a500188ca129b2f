package templates

import (
	"html/template"
	"time"
)

var footerTmpl = template.Must(template.New("footer").Parse(
	`<footer class="site-footer">` +
		`<div class="footer-brand">` +
		`<strong>RevitaMax Scientific</strong>` +
		`<p>Transformando vidas através de conteúdo de alta qualidade e metodologias comprovadas. Mais de 10.000 clientes satisfeitos em todo o Brasil.</p>` +
		`</div>` +
		`<nav class="footer-links">` +
		`<a href="#como-funciona" data-cta="footer_como_funciona" data-position="footer" data-product-id="como-funciona">Como Funciona</a>` +
		`<a href="#produtos" data-cta="footer_produtos" data-position="footer" data-product-id="produtos">Produtos</a>` +
		`<a href="#depoimentos" data-cta="footer_depoimentos" data-position="footer" data-product-id="depoimentos">Depoimentos</a>` +
		`</nav>` +
		`<address class="footer-contact">` +
		`<a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a>` +
		`<span>{{.Phone}}</span>` +
		`</address>` +
		`<p class="footer-legal">© {{.Year}} RevitaMax Scientific. Todos os direitos reservados. ` +
		`<a href="/privacidade">Política de Privacidade</a> · <a href="/termos">Termos de Uso</a> · ` +
		`<a href="#inicio" data-cta="footer_voltar_topo" data-position="footer" data-product-id="inicio">Voltar ao Topo</a></p>` +
		`</footer>`,
))

type footerData struct {
	Year         int
	SupportEmail string
	Phone        string
}

// RenderFooter renders the shared page footer.
func RenderFooter() string {
	return execute(footerTmpl, footerData{
		Year:         time.Now().Year(),
		SupportEmail: "suporte@revitamax-pro.com",
		Phone:        "(11) 99999-9999",
	})
}
