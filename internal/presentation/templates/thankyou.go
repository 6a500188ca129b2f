package templates

import "html/template"

var thankYouTmpl = template.Must(template.New("thankYou").Parse(
	`<main class="thank-you">` +
		`<header class="thank-you-header">` +
		`<h1>🎉 Parabéns, {{.CustomerName}}!</h1>` +
		`<p>Sua jornada de transformação começa agora!</p>` +
		`</header>` +
		`<section class="order-details">` +
		`<h2>Detalhes da Sua Compra</h2>` +
		`<dl>` +
		`<dt>Pedido</dt><dd data-order-id>{{.OrderID}}</dd>` +
		`<dt>Produto</dt><dd>{{.ProductName}}</dd>` +
		`<dt>Valor</dt><dd>{{.PriceLabel}}</dd>` +
		`<dt>Status</dt><dd>Confirmado</dd>` +
		`</dl>` +
		`{{if .Attribution}}` +
		`<details class="attribution"><summary>Origem da visita</summary><dl>` +
		`{{range .Attribution}}<dt>{{.Key}}</dt><dd>{{.Value}}</dd>{{end}}` +
		`</dl></details>` +
		`{{end}}` +
		`</section>` +
		`<section class="next-steps">` +
		`<article><h3>1. Baixe Seus Materiais</h3><p>Acesse imediatamente todos os materiais exclusivos e comece sua transformação hoje mesmo.</p></article>` +
		`<article><h3>2. Acesse a Área de Membros</h3><p>Entre na comunidade exclusiva e tenha acesso ao suporte especializado 24/7.</p></article>` +
		`</section>` +
		`<section class="timeline">` +
		`<h2>Seu Cronograma de Transformação</h2>` +
		`<ol>` +
		`<li><b>Hoje</b> Acesso Liberado: baixe os materiais e comece imediatamente</li>` +
		`<li><b>7 Dias</b> Primeiros Resultados: veja as primeiras mudanças acontecerem</li>` +
		`<li><b>15 Dias</b> Aceleração: resultados se tornam mais evidentes</li>` +
		`<li><b>30 Dias</b> Transformação: vida completamente transformada</li>` +
		`</ol>` +
		`</section>` +
		`<aside class="notice">` +
		`<h3>📧 Informações Importantes</h3>` +
		`<ul>` +
		`<li>Você receberá um email de confirmação em até 5 minutos</li>` +
		`{{if .Email}}<li>Seus dados de acesso foram enviados para {{.Email}}</li>{{end}}` +
		`<li>Verifique sua caixa de spam caso não encontre o email</li>` +
		`<li>O suporte está disponível 24/7 para qualquer dúvida</li>` +
		`</ul>` +
		`</aside>` +
		`</main>`,
))

// AttributionRow is one resolved attribution key shown on the thank-you page.
type AttributionRow struct {
	Key   string
	Value string
}

// ThankYouData is the confirmation page for one order.
type ThankYouData struct {
	CustomerName string
	Email        string
	OrderID      string
	ProductName  string
	PriceLabel   string
	Attribution  []AttributionRow
}

// RenderThankYou renders the thank-you page body.
func RenderThankYou(data ThankYouData) string {
	if data.CustomerName == "" {
		data.CustomerName = "Cliente"
	}
	return execute(thankYouTmpl, data)
}
