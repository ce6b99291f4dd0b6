package renderer

import "strings"

// BuildPreviewDocument wraps a resume fragment in the full print-optimized
// page served by the preview endpoint: typography, on-screen download
// instructions, and @page rules so the browser's print-to-PDF output comes
// out as a clean A4 document.
func BuildPreviewDocument(fragment string) string {
	return strings.Replace(previewTemplate, "__RESUME_CONTENT__", fragment, 1)
}

const previewTemplate = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Your Resume - Print or Download as PDF</title>
    <link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap" rel="stylesheet">
    <style>
      * { box-sizing: border-box; margin: 0; padding: 0; }

      body {
        font-family: 'Inter', Arial, sans-serif;
        line-height: 1.6;
        color: #333;
        background: white;
        padding: 40px;
      }

      .resume-container {
        max-width: 850px;
        margin: 0 auto;
        background: white;
        position: relative;
      }

      .print-instructions {
        position: fixed;
        top: 20px;
        right: 20px;
        background: #f8f9fa;
        padding: 15px 20px;
        border-radius: 8px;
        box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        z-index: 1000;
      }

      .print-instructions h3 { margin-bottom: 10px; color: #2d3748; }
      .print-instructions ol { margin-left: 20px; }
      .print-instructions li { margin-bottom: 8px; color: #4a5568; }

      h1 { font-size: 28px; font-weight: 700; margin-bottom: 8px; color: #1a1a1a; }
      h2 {
        font-size: 20px;
        font-weight: 600;
        margin: 24px 0 12px;
        color: #2a2a2a;
        border-bottom: 2px solid #eaeaea;
        padding-bottom: 8px;
      }
      h3 { font-size: 16px; font-weight: 600; margin: 16px 0 8px; color: #2a2a2a; }
      p { margin: 8px 0; font-size: 14px; }
      ul { margin: 8px 0; padding-left: 20px; }
      li { margin: 4px 0; font-size: 14px; }

      .section { margin-bottom: 24px; break-inside: avoid; }
      .contact-info { margin-bottom: 24px; font-size: 14px; color: #666; }
      .experience-item, .education-item { margin-bottom: 16px; break-inside: avoid; }
      .date { color: #666; font-size: 14px; }
      .company, .school { font-weight: 500; color: #2a2a2a; }

      .skills-list {
        display: flex;
        flex-wrap: wrap;
        gap: 8px;
        list-style: none;
        padding: 0;
      }
      .skill-item {
        background: #f5f5f5;
        padding: 4px 12px;
        border-radius: 4px;
        font-size: 14px;
      }

      @media print {
        body { padding: 0; background: white; }
        .resume-container { padding: 20px; }
        .print-instructions { display: none; }

        @page { size: A4; margin: 20mm; }

        h2 { break-after: avoid; }
        h3 { break-after: avoid; }
        .section { break-inside: avoid; }
      }
    </style>
  </head>
  <body>
    <div class="print-instructions">
      <h3>&#128196; Download as PDF</h3>
      <ol>
        <li>Press <strong>Ctrl + P</strong> (or &#8984; + P on Mac)</li>
        <li>Set "Destination" to <strong>Save as PDF</strong></li>
        <li>Set "Layout" to <strong>Portrait</strong></li>
        <li>Set "Margins" to <strong>Default</strong></li>
        <li>Disable "Headers and footers"</li>
        <li>Click "Save" or "Print"</li>
      </ol>
    </div>
    <div class="resume-container">__RESUME_CONTENT__</div>
  </body>
</html>
`
