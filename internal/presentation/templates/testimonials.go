package templates

import "html/template"

var testimonialsTmpl = template.Must(template.New("testimonials").Parse(
	`<section id="depoimentos" class="testimonials">` +
		`<h2>Transformações Reais de Saúde</h2>` +
		`<div class="testimonial-grid">` +
		`{{range .}}` +
		`<figure class="testimonial">` +
		`<img src="{{.Image}}" alt="Foto de {{.Name}}" width="64" height="64" loading="lazy">` +
		`<figcaption><strong>{{.Name}}</strong><span>{{.Role}}</span><small>Situação: {{.Condition}}</small></figcaption>` +
		`<div class="stars" aria-label="{{.Rating}} de 5">{{range .Stars}}★{{end}}</div>` +
		`<blockquote>"{{.Content}}"</blockquote>` +
		`<p class="result">{{.Result}}</p>` +
		`</figure>` +
		`{{end}}` +
		`</div>` +
		`<ul class="stats">` +
		`<li><b>50.000+</b> Vidas Transformadas</li>` +
		`<li><b>97%</b> Eficácia Comprovada</li>` +
		`<li><b>21</b> Dias para Resultados</li>` +
		`<li><b>60</b> Dias de Garantia</li>` +
		`</ul>` +
		`</section>`,
))

// Testimonial is one customer story.
type Testimonial struct {
	Name      string
	Role      string
	Image     string
	Content   string
	Rating    int
	Result    string
	Condition string
}

// Stars returns one entry per rating point for range loops.
func (t Testimonial) Stars() []struct{} {
	if t.Rating <= 0 {
		return nil
	}
	return make([]struct{}, t.Rating)
}

// Testimonials are the stories shown below the offer.
var Testimonials = []Testimonial{
	{
		Name:      "Maria Silva",
		Role:      "Empresária, 42 anos",
		Image:     "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150&h=150&fit=crop&crop=face",
		Content:   "Em 3 semanas já sentia mais energia e disposição. Minha qualidade de sono melhorou muito e finalmente consegui me livrar da fadiga constante.",
		Rating:    5,
		Result:    "100% mais energia em 21 dias",
		Condition: "Fadiga crônica",
	},
	{
		Name:      "João Santos",
		Role:      "Engenheiro, 38 anos",
		Image:     "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face",
		Content:   "Após anos sofrendo com falta de concentração no trabalho, esse nutracêutico mudou minha vida. Meu foco e produtividade aumentaram drasticamente.",
		Rating:    5,
		Result:    "Concentração 300% melhor",
		Condition: "Falta de foco",
	},
	{
		Name:      "Ana Costa",
		Role:      "Professora, 45 anos",
		Image:     "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=150&h=150&fit=crop&crop=face",
		Content:   "Minha imunidade estava muito baixa e vivia gripada. Com RevitaMax, não fico doente há meses e me sinto muito mais forte e resistente.",
		Rating:    5,
		Result:    "Imunidade fortalecida 90%",
		Condition: "Baixa imunidade",
	},
	{
		Name:      "Carlos Oliveira",
		Role:      "Advogado, 52 anos",
		Image:     "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face",
		Content:   "Estava com o colesterol alto e pressão descontrolada. Em 2 meses de uso, meus exames normalizaram e meu cardiologista ficou impressionado.",
		Rating:    5,
		Result:    "Saúde cardiovascular normalizada",
		Condition: "Problemas cardiovasculares",
	},
	{
		Name:      "Luciana Ferreira",
		Role:      "Nutricionista, 39 anos",
		Image:     "https://images.unsplash.com/photo-1489424731084-a5d8b219a5bb?w=150&h=150&fit=crop&crop=face",
		Content:   "Como profissional da saúde, sou muito criteriosa com suplementos. RevitaMax superou todas as expectativas pelos resultados e qualidade científica.",
		Rating:    5,
		Result:    "Aprovação profissional 100%",
		Condition: "Validação científica",
	},
	{
		Name:      "Roberto Lima",
		Role:      "Aposentado, 64 anos",
		Image:     "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=150&h=150&fit=crop&crop=face",
		Content:   "Na minha idade, energia é fundamental. Este produto me devolveu a vitalidade que não sentia há anos. Agora consigo acompanhar meus netos!",
		Rating:    5,
		Result:    "Vitalidade recuperada aos 64 anos",
		Condition: "Perda de vitalidade",
	},
}

// RenderTestimonials renders the social proof section.
func RenderTestimonials(items []Testimonial) string {
	return execute(testimonialsTmpl, items)
}
